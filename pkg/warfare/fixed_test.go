package warfare

import "testing"

func TestFixed_Arithmetic(t *testing.T) {
	a := FromInt(3)
	b := FromMilli(500)
	if got := a.Mul(b); got != FromMilli(1500) {
		t.Errorf("3 * 0.5 = %s, want 1.5", got)
	}
	if got := a.Div(b); got != FromInt(6) {
		t.Errorf("3 / 0.5 = %s, want 6", got)
	}
	if got := a.Div(Zero); got != Zero {
		t.Errorf("division by zero = %s, want 0", got)
	}
	if got := FromRatio(1, 3); got.Raw() != 3333 {
		t.Errorf("1/3 raw = %d, want 3333", got.Raw())
	}
}

func TestFixed_Rounding(t *testing.T) {
	tests := []struct {
		in                 Fixed
		floor, ceil, round int64
	}{
		{FromMilli(2500), 2, 3, 3},
		{FromMilli(2499), 2, 3, 2},
		{FromInt(4), 4, 4, 4},
		{-FromMilli(2500), -3, -2, -3},
		{-FromMilli(100), -1, 0, 0},
	}
	for _, tt := range tests {
		if got := tt.in.Floor(); got != tt.floor {
			t.Errorf("%s.Floor() = %d, want %d", tt.in, got, tt.floor)
		}
		if got := tt.in.Ceil(); got != tt.ceil {
			t.Errorf("%s.Ceil() = %d, want %d", tt.in, got, tt.ceil)
		}
		if got := tt.in.Round(); got != tt.round {
			t.Errorf("%s.Round() = %d, want %d", tt.in, got, tt.round)
		}
	}
}

func TestParseFixed(t *testing.T) {
	tests := []struct {
		in      string
		want    Fixed
		wantErr bool
	}{
		{"3", FromInt(3), false},
		{"0.25", FromMilli(250), false},
		{"-1.5", -FromMilli(1500), false},
		{".5", FromMilli(500), false},
		{"1.23456", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFixed(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFixed(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFixed(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFixed_String(t *testing.T) {
	if got := FromMilli(-1250).String(); got != "-1.2500" {
		t.Errorf("String() = %q", got)
	}
}
