package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexStringsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"array", `["governance","treasury"]`, []string{"governance", "treasury"}},
		{"scalar string", `"governance"`, []string{"governance"}},
		{"scalar number", `42`, []string{"42"}},
		{"mixed array", `["a", 1, true]`, []string{"a", "1", "true"}},
		{"empty array", `[]`, []string{}},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexStrings
			if err := json.Unmarshal([]byte(tt.data), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.data, err)
			}
			if !reflect.DeepEqual([]string(got), tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestFlexStringsUnmarshalInvalid(t *testing.T) {
	var got FlexStrings
	if err := json.Unmarshal([]byte(`{`), &got); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
