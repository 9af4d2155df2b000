package color

import "strings"

// Swatch is a named entry of the picker palette.
type Swatch struct {
	Name  string
	Color Color
}

var palette = []Swatch{
	{"red", RGB(0xF4, 0x43, 0x36)},
	{"pink", RGB(0xE9, 0x1E, 0x63)},
	{"purple", RGB(0x9C, 0x27, 0xB0)},
	{"deep-purple", RGB(0x67, 0x3A, 0xB7)},
	{"indigo", RGB(0x3F, 0x51, 0xB5)},
	{"blue", RGB(0x21, 0x96, 0xF3)},
	{"light-blue", RGB(0x03, 0xA9, 0xF4)},
	{"cyan", RGB(0x00, 0xBC, 0xD4)},
	{"teal", RGB(0x00, 0x96, 0x88)},
	{"green", RGB(0x4C, 0xAF, 0x50)},
	{"light-green", RGB(0x8B, 0xC3, 0x4A)},
	{"lime", RGB(0xCD, 0xDC, 0x39)},
	{"yellow", RGB(0xFF, 0xEB, 0x3B)},
	{"amber", RGB(0xFF, 0xC1, 0x07)},
	{"orange", RGB(0xFF, 0x98, 0x00)},
	{"deep-orange", RGB(0xFF, 0x57, 0x22)},
	{"brown", RGB(0x79, 0x55, 0x48)},
	{"grey", RGB(0x9E, 0x9E, 0x9E)},
	{"blue-grey", RGB(0x60, 0x7D, 0x8B)},
	{"black", RGB(0x00, 0x00, 0x00)},
}

// Palette returns a copy of the block picker swatches in display order.
func Palette() []Swatch {
	out := make([]Swatch, len(palette))
	copy(out, palette)
	return out
}

// Lookup finds a swatch by name. Underscores and case are ignored so that
// "Deep_Orange" and "deep-orange" match.
func Lookup(name string) (Swatch, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, s := range palette {
		if s.Name == key {
			return s, true
		}
	}
	return Swatch{}, false
}
