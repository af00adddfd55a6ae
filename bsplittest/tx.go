package bsplittest

import (
	"encoding/json"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/errors"
)

// Tx is a test implementation of the bsplit.Tx interface, wrapping a single
// message. Setting Err makes every method call fail with that error.
type Tx struct {
	// Msg is the message that this transaction is carrying.
	Msg bsplit.Msg

	// Err if set is returned by any method call.
	Err error
}

var _ bsplit.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (bsplit.Msg, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	raw, err := tx.Msg.Marshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(&txData{Path: tx.Msg.Path(), Body: raw})
}

func (tx *Tx) Unmarshal([]byte) error {
	if tx.Err != nil {
		return tx.Err
	}
	return errors.Wrap(errors.ErrHuman, "cannot unmarshal into a test transaction")
}

type txData struct {
	Path string `json:"path"`
	Body []byte `json:"body"`
}
