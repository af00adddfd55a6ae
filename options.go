package bsplit

import (
	"encoding/json"

	"github.com/splitchain/bsplit/errors"
)

// Options are the application options, typically deserialized from the
// genesis file. Each extension reads its own subsection by key.
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing.
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "%s: %s", key, err)
	}
	return nil
}

// Initializer implementations are called to initialize the data store from
// the application options before processing any transactions.
type Initializer interface {
	FromGenesis(opts Options, db KVStore) error
}
