package bsplit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/errors"
)

func TestConditionAddress(t *testing.T) {
	data := []byte("foo")
	cond := NewCondition("escrow", "bounty", data)

	addr := cond.Address()
	assert.Nil(t, addr.Validate())
	assert.Equal(t, AddressLength, len(addr))

	// the derivation is deterministic
	assert.Equal(t, addr, NewCondition("escrow", "bounty", data).Address())

	other := NewCondition("escrow", "bounty", []byte("bar"))
	if addr.Equals(other.Address()) {
		t.Fatal("different conditions must produce different addresses")
	}
}

func TestConditionParse(t *testing.T) {
	cond := NewCondition("ext", "typ", []byte{1, 2, 3})
	ext, typ, data, err := cond.Parse()
	assert.Nil(t, err)
	assert.Equal(t, "ext", ext)
	assert.Equal(t, "typ", typ)
	assert.Equal(t, []byte{1, 2, 3}, data)

	broken := Condition("not-a-condition")
	if _, _, _, err := broken.Parse(); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
}

func TestAddressJSON(t *testing.T) {
	cases := map[string]struct {
		json string
		want Address
	}{
		"default hex": {
			json: `"8A4AF2B829A48DD4B1F8200ADBFE4BB9BC3B2A0B"`,
			want: fromHex(t, "8A4AF2B829A48DD4B1F8200ADBFE4BB9BC3B2A0B"),
		},
		"explicit hex": {
			json: `"hex:8A4AF2B829A48DD4B1F8200ADBFE4BB9BC3B2A0B"`,
			want: fromHex(t, "8A4AF2B829A48DD4B1F8200ADBFE4BB9BC3B2A0B"),
		},
		"condition format": {
			json: `"cond:escrow/bounty/0102030405"`,
			want: NewCondition("escrow", "bounty", []byte{1, 2, 3, 4, 5}).Address(),
		},
		"empty": {
			json: `""`,
			want: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got Address
			assert.Nil(t, json.Unmarshal([]byte(tc.json), &got))
			if !got.Equals(tc.want) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}

	var bad Address
	if err := json.Unmarshal([]byte(`"gibberish:1234"`), &bad); !errors.ErrType.Is(err) {
		t.Fatalf("want type error, got %+v", err)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	addr := NewCondition("test", "rnd", []byte("seed")).Address()
	raw, err := json.Marshal(addr)
	assert.Nil(t, err)

	var loaded Address
	assert.Nil(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, addr, loaded)

	parsed, err := ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)
}

func fromHex(t *testing.T, s string) Address {
	t.Helper()
	addr, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("cannot parse address: %+v", err)
	}
	return addr
}

func TestNewAddress(t *testing.T) {
	assert.Equal(t, Address(nil), NewAddress(nil))

	a := NewAddress([]byte("payload"))
	assert.Nil(t, a.Validate())
	if bytes.Equal(a, NewAddress([]byte("payloae"))) {
		t.Fatal("different payloads must produce different addresses")
	}
}
