package path

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"Price", false},
		{"_x", false},
		{"x2", false},
		{"", true},
		{"Order.Price", true},
		{"..", true},
		{"getName()", true},
		{"@customers", true},
		{"12", true},
		{"has space", true},
	}

	for _, tt := range tests {
		p, err := Parse(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrNestedPath) {
				t.Errorf("Parse(%q) error = %v, want ErrNestedPath", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
		}
		if p.String() != tt.input {
			t.Errorf("Parse(%q) name = %q", tt.input, p.String())
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  SegmentType
	}{
		{"name", SegmentProperty},
		{"..", SegmentParent},
		{"getName()", SegmentMethod},
		{"@app", SegmentStandard},
		{"3", SegmentIndex},
	}
	for _, tt := range tests {
		if got := Classify(tt.input); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestValidateAllowEmpty(t *testing.T) {
	if err := Validate(true, "", "Y"); err != nil {
		t.Errorf("Validate with empty allowed: %v", err)
	}
	if err := Validate(false, "", "Y"); err == nil {
		t.Error("Validate should reject empty path")
	}
}
