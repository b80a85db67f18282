package feed

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// number accepts 28, 28.0, "28" and null.
type number struct {
	value int
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		n.value, n.set = v, true
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "number %q", s)
	}
	n.value, n.set = int(f), true
	return nil
}

func (n *number) ptr() *int {
	if n == nil || !n.set {
		return nil
	}
	v := n.value
	return &v
}

// text accepts a JSON string, a number, or an object with displayValue.
type text struct {
	value string
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &t.value)
	case b[0] == '{':
		var obj struct {
			DisplayValue string `json:"displayValue"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		t.value = obj.DisplayValue
		return nil
	default:
		t.value = string(b)
		return nil
	}
}
