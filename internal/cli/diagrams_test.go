package cli

import (
	"testing"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/errors"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		arg        string
		row, label int
		wantErr    bool
	}{
		{"0=5", 0, 5, false},
		{" 3 = 12 ", 3, 12, false},
		{"2=0", 2, 0, false},
		{"2", 0, 0, true},
		{"a=1", 0, 0, true},
		{"1=-1", 0, 0, true},
	}
	for _, tt := range tests {
		row, label, err := parseLabel(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLabel(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if row != tt.row || label != tt.label {
			t.Errorf("parseLabel(%q) = %d, %d, want %d, %d", tt.arg, row, label, tt.row, tt.label)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		arg  string
		n    int
		want int
		code errors.Code
	}{
		{"1", 3, 0, ""},
		{"3", 3, 2, ""},
		{"0", 3, 0, errors.ErrCodeNotFound},
		{"4", 3, 0, errors.ErrCodeNotFound},
		{"1", 0, 0, errors.ErrCodeNotFound},
		{"two", 3, 0, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		got, err := parsePosition(tt.arg, tt.n)
		if code := errors.GetCode(err); code != tt.code {
			t.Errorf("parsePosition(%q, %d) code = %q, want %q", tt.arg, tt.n, code, tt.code)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parsePosition(%q, %d) = %d, want %d", tt.arg, tt.n, got, tt.want)
		}
	}
}

func TestMarkerFlagsApplyLeavesInputUntouched(t *testing.T) {
	f := newMarkerFlags()
	*f.markers[diagram.Triangle] = []string{"3-2"}
	f.labels = []string{"0=7"}

	in := diagram.New("", 4, 6)
	out, err := f.apply(in)
	if err != nil {
		t.Fatalf("apply() error: %v", err)
	}
	if !out.Has(diagram.Fretted(3, 2), diagram.Triangle) || out.FretLabels[0] != 7 {
		t.Errorf("apply() = %v labels %v", out.Markers, out.FretLabels)
	}
	if len(in.Markers) != 0 || in.FretLabels[0] != 0 {
		t.Error("apply() mutated its input")
	}

	f.labels = []string{"6=1"}
	if _, err := f.apply(in); !errors.Is(err, errors.ErrCodeInvalidDiagram) {
		t.Errorf("label beyond last fret error = %v, want %s", err, errors.ErrCodeInvalidDiagram)
	}
}
