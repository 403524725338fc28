package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexStrings is a string list that also accepts a scalar JSON value.
// Models occasionally return "tags": "governance" instead of
// "tags": ["governance"]; the scalar form is kept as a singleton list
// so no information is lost.
type FlexStrings []string

// UnmarshalJSON accepts an array, a scalar, or null.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}

	if data[0] == '[' {
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, stringify(item))
		}
		*f = out
		return nil
	}

	var single any
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = []string{stringify(single)}
	return nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
