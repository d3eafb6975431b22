package store

import (
	"fmt"

	"github.com/roach88/relgraph/internal/ir"
)

// marshalOptions converts association options to canonical JSON TEXT.
func marshalOptions(opts map[string]string) (string, error) {
	obj := make(ir.IRObject, len(opts))
	for k, v := range opts {
		obj[k] = ir.IRString(v)
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// unmarshalOptions parses options TEXT. Empty objects decode to nil so
// round-tripped associations compare equal to freshly parsed ones.
func unmarshalOptions(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var obj ir.IRObject
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("unmarshal options: %q is %T, want string", k, v)
		}
		out[k] = string(s)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
