package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an RGB triple selected for the nails.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Default is the selection a fresh session starts with (#FF8B7E).
var Default = Color{R: 255, G: 139, B: 126}

// ErrInvalidColor is returned when a color specification cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// RGB builds a color from its channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// String returns the wire form "r,g,b" in decimal.
func (c Color) String() string {
	return strconv.Itoa(int(c.R)) + "," + strconv.Itoa(int(c.G)) + "," + strconv.Itoa(int(c.B))
}

// Hex returns the #RRGGBB form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance returns the relative luminance of the color in [0, 1].
func (c Color) Luminance() float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// PrefersDarkForeground reports whether text drawn on top of the color
// should be black rather than white.
func (c Color) PrefersDarkForeground() bool {
	return c.Luminance() > 0.5
}

func linearize(channel uint8) float64 {
	v := float64(channel) / 255.0
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ParseTriple parses the wire form "r,g,b". Surrounding whitespace around
// each channel is tolerated; anything else is rejected.
func ParseTriple(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: %q: expected r,g,b", ErrInvalidColor, s)
	}

	var channels [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
		}
		if v < 0 || v > 255 {
			return Color{}, fmt.Errorf("%w: %q: channel %d out of range [0,255]", ErrInvalidColor, s, v)
		}
		channels[i] = uint8(v)
	}
	return Color{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// ParseHex parses #RRGGBB (the leading # is optional).
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q: expected #RRGGBB", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Parse accepts "r,g,b", "#RRGGBB" or a palette name such as "pink".
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	case strings.Contains(s, ","):
		return ParseTriple(s)
	case strings.HasPrefix(s, "#"):
		return ParseHex(s)
	}
	if swatch, ok := Lookup(s); ok {
		return swatch.Color, nil
	}
	return Color{}, fmt.Errorf("%w: %q: not a triple, hex value or palette name", ErrInvalidColor, s)
}
