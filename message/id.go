package message

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"
)

// ID is a JSON-RPC correlation id. The channel only issues numeric ids, but a
// peer may use strings for its own requests, so both forms round-trip.
type ID struct {
	num   int64
	str   string
	isStr bool
}

func NewNumberID(n int64) ID { return ID{num: n} }

func NewStringID(s string) ID { return ID{str: s, isStr: true} }

// Number returns the numeric value and whether the id is numeric.
func (id ID) Number() (int64, bool) {
	return id.num, !id.isStr
}

func (id ID) String() string {
	if id.isStr {
		return strconv.Quote(id.str)
	}
	return strconv.FormatInt(id.num, 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.isStr {
		return json.Marshal(id.str)
	}
	return strconv.AppendInt(nil, id.num, 10), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Errorf("invalid string id: %w", err)
		}
		*id = NewStringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.Errorf("invalid numeric id %q: %w", data, err)
	}
	*id = NewNumberID(n)
	return nil
}
