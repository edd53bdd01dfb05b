package sqlite

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"parse key", "parse:2fd4e1c67a2d28fced849ee1bb76e7391b93eb12", false},
		{"lease key", "lease:2fd4e1c67a2d28fced849ee1bb76e7391b93eb12", false},
		{"empty", "", true},
		{"too long", strings.Repeat("k", maxKeyLength+1), true},
		{"max length", strings.Repeat("k", maxKeyLength), false},
		{"null byte", "parse:\x00", true},
		{"suspicious but allowed", "parse:a;b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateKey_LogsSuspiciousPatterns(t *testing.T) {
	logger := &MockLogger{}

	if err := ValidateKey("parse:x';--"+strings.Repeat("y", 80), logger); err != nil {
		t.Fatalf("ValidateKey() error = %v", err)
	}

	patterns := map[string]bool{}
	for _, w := range logger.warnings {
		patterns[w.fields["pattern"].(string)] = true
		if preview := w.fields["key_preview"].(string); !strings.HasSuffix(preview, "...") {
			t.Errorf("key_preview not truncated: %q", preview)
		}
	}
	for _, want := range []string{"'", ";", "--"} {
		if !patterns[want] {
			t.Errorf("missing warning for pattern %q", want)
		}
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue(nil); err == nil {
		t.Error("ValidateValue(nil) should fail")
	}
	if err := ValidateValue(make([]byte, maxValueLength+1)); err == nil {
		t.Error("ValidateValue() should reject oversized values")
	}
	if err := ValidateValue([]byte("{}")); err != nil {
		t.Errorf("ValidateValue() error = %v", err)
	}
}
