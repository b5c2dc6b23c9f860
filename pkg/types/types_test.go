package types

import "testing"

func TestPointString(t *testing.T) {
	if got := (SourcePoint{X: 3, Y: 28}).String(); got != "(3, 28)" {
		t.Errorf("SourcePoint.String() = %q, want %q", got, "(3, 28)")
	}
	if got := (CanvasPoint{X: -1, Y: 0}).String(); got != "(-1, 0)" {
		t.Errorf("CanvasPoint.String() = %q, want %q", got, "(-1, 0)")
	}
}

func TestParseFailurePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", AbortBatch, false},
		{"abort", AbortBatch, false},
		{"skip", SkipVariant, false},
		{"retry", AbortBatch, true},
	}
	for _, tt := range tests {
		got, err := ParseFailurePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFailurePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFailurePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tt.in)
		}
	}
}
