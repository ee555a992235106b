package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ID is a card's identity: the compact JSON text of its "id" value, so
// catalogs may use numbers or strings. Two ids are equal when their text is.
type ID string

var ErrInvalidID = errors.New("card id must be a string or a number")

func IntID(n int) ID { return ID(strconv.Itoa(n)) }

func StringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID(b)
}

// ParseID validates raw and returns its compact form.
func ParseID(raw json.RawMessage) (ID, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	b := buf.Bytes()
	if len(b) == 0 {
		return "", ErrInvalidID
	}
	switch {
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return "", err
		}
	default:
		return "", ErrInvalidID
	}
	return ID(b), nil
}

// String returns the id as a person would write it: strings unquoted.
func (id ID) String() string {
	var s string
	if len(id) > 0 && id[0] == '"' && json.Unmarshal([]byte(id), &s) == nil {
		return s
	}
	return string(id)
}
