package schema

import "fmt"

// BoolTransformer stores booleans as integers (true=1, false=0) and
// coerces them back to genuine booleans on every read path.
var BoolTransformer Transformer = boolTransformer{}

type boolTransformer struct{}

func (boolTransformer) ToStorage(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return b, nil
	case int:
		return int64(b), nil
	default:
		return nil, fmt.Errorf("schema: cannot store %T as boolean", v)
	}
}

func (boolTransformer) FromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return BoolFromStorage(v)
}

// BoolFromStorage coerces the integer storage representation of a
// boolean back to a bool. Zero is false, any other value is true.
func BoolFromStorage(v any) (bool, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case int64:
		return n != 0, nil
	case int:
		return n != 0, nil
	case float64:
		return n != 0, nil
	case []byte:
		return len(n) > 0 && string(n) != "0", nil
	case string:
		return n != "" && n != "0", nil
	default:
		return false, fmt.Errorf("schema: cannot coerce %T to boolean", v)
	}
}
