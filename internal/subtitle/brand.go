package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Palette holds the colours used by the HTML rendering. Dark is used for
// headings, badges and links on white; Bright for highlights and focus rings
// on black text.
type Palette struct {
	Dark   string
	Bright string
	Text   string
	Tint   string
}

// DefaultPalette is the maroon and gold brand.
var DefaultPalette = Palette{
	Dark:   "#8C1D40",
	Bright: "#FFC627",
	Text:   "#191919",
	Tint:   "#FFF9E6",
}

// MinContrast is the WCAG 2.x AA ratio for normal text.
const MinContrast = 4.5

// Check verifies that Dark on white and black on Bright meet MinContrast.
func (p Palette) Check() error {
	pairs := []struct{ fg, bg, name string }{
		{p.Dark, "#FFFFFF", "dark on white"},
		{"#000000", p.Bright, "black on bright"},
		{p.Text, "#FFFFFF", "text on white"},
		{p.Text, p.Tint, "text on tint"},
	}
	for _, pair := range pairs {
		ratio, err := ContrastRatio(pair.fg, pair.bg)
		if err != nil {
			return err
		}
		if ratio < MinContrast {
			return fmt.Errorf("palette %s: contrast %.2f below %.1f", pair.name, ratio, MinContrast)
		}
	}
	return nil
}

// ContrastRatio returns the WCAG contrast ratio between two #RRGGBB colours,
// from 1 (identical) to 21 (black on white).
func ContrastRatio(a, b string) (float64, error) {
	la, err := relativeLuminance(a)
	if err != nil {
		return 0, err
	}
	lb, err := relativeLuminance(b)
	if err != nil {
		return 0, err
	}
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05), nil
}

func relativeLuminance(hex string) (float64, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", hex, err)
	}

	channel := func(c uint64) float64 {
		s := float64(c) / 255
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	r := channel(v >> 16 & 0xff)
	g := channel(v >> 8 & 0xff)
	b := channel(v & 0xff)
	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}
