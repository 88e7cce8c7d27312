package validate

import (
	"strings"
	"testing"
)

type sample struct {
	Code string `json:"code" validate:"required,max=8"`
	Role string `json:"role" validate:"oneof=admin volunteer"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		wantErr string
	}{
		{"valid", &sample{Code: "MAIN", Role: "admin"}, ""},
		{"missing code", &sample{Role: "admin"}, "code required"},
		{"too long", &sample{Code: "MAIN-12345", Role: "volunteer"}, "code max"},
		{"bad role", &sample{Code: "A", Role: "guest"}, "role oneof"},
		{"nil", nil, "is nil"},
		{"not a struct", "text", "not a struct"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Struct() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() = nil, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}
