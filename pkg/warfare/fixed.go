package warfare

import (
	"fmt"
	"strconv"
)

// FixedScale is the number of raw units in One.
const FixedScale = 10000

// Fixed is a signed decimal with four fractional digits stored as an int64.
// All simulation arithmetic goes through Fixed so replays are bit-identical
// across platforms.
type Fixed int64

const (
	Zero Fixed = 0
	One  Fixed = FixedScale
)

// FromInt converts a whole number to Fixed.
func FromInt(v int64) Fixed { return Fixed(v * FixedScale) }

// FromRatio returns num/den truncated toward zero. A zero denominator yields Zero.
func FromRatio(num, den int64) Fixed {
	if den == 0 {
		return Zero
	}
	return Fixed(num * FixedScale / den)
}

// FromMilli converts thousandths to Fixed, e.g. FromMilli(125) == 0.125.
func FromMilli(v int64) Fixed { return Fixed(v * (FixedScale / 1000)) }

func (f Fixed) Add(o Fixed) Fixed { return f + o }
func (f Fixed) Sub(o Fixed) Fixed { return f - o }

// Mul multiplies two fixed values, truncating toward zero.
func (f Fixed) Mul(o Fixed) Fixed { return Fixed(int64(f) * int64(o) / FixedScale) }

// Div divides f by o, truncating toward zero. Division by zero yields Zero.
func (f Fixed) Div(o Fixed) Fixed {
	if o == 0 {
		return Zero
	}
	return Fixed(int64(f) * FixedScale / int64(o))
}

// MulInt multiplies by a whole number without precision loss.
func (f Fixed) MulInt(v int64) Fixed { return Fixed(int64(f) * v) }

// DivInt divides by a whole number, truncating toward zero.
func (f Fixed) DivInt(v int64) Fixed {
	if v == 0 {
		return Zero
	}
	return Fixed(int64(f) / v)
}

// Floor returns the largest whole number <= f.
func (f Fixed) Floor() int64 {
	v := int64(f) / FixedScale
	if int64(f) < 0 && int64(f)%FixedScale != 0 {
		v--
	}
	return v
}

// Ceil returns the smallest whole number >= f.
func (f Fixed) Ceil() int64 {
	v := int64(f) / FixedScale
	if int64(f) > 0 && int64(f)%FixedScale != 0 {
		v++
	}
	return v
}

// Round rounds half away from zero.
func (f Fixed) Round() int64 {
	if f < 0 {
		return -((-f) + FixedScale/2).Floor()
	}
	return (f + FixedScale/2).Floor()
}

func (f Fixed) Max(o Fixed) Fixed {
	if f > o {
		return f
	}
	return o
}

func (f Fixed) Min(o Fixed) Fixed {
	if f < o {
		return f
	}
	return o
}

// Clamp bounds f to [lo, hi].
func (f Fixed) Clamp(lo, hi Fixed) Fixed { return f.Max(lo).Min(hi) }

// Raw returns the underlying integer representation.
func (f Fixed) Raw() int64 { return int64(f) }

func (f Fixed) String() string {
	sign := ""
	v := int64(f)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%04d", sign, v/FixedScale, v%FixedScale)
}

// UnmarshalYAML accepts plain numbers ("3", "0.25") in scenario files.
func (f *Fixed) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFixed(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFixed parses a decimal string with at most four fractional digits.
func ParseFixed(s string) (Fixed, error) {
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			whole, frac = s[:i], s[i+1:]
			break
		}
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse fixed %q: empty", s)
	}
	if len(frac) > 4 {
		return 0, fmt.Errorf("parse fixed %q: more than 4 fractional digits", s)
	}
	var w int64
	if whole != "" {
		var err error
		w, err = strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse fixed %q: %w", s, err)
		}
	}
	var fr int64
	if frac != "" {
		for len(frac) < 4 {
			frac += "0"
		}
		var err error
		fr, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse fixed %q: %w", s, err)
		}
	}
	v := Fixed(w*FixedScale + fr)
	if neg {
		v = -v
	}
	return v, nil
}
