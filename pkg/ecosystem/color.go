package ecosystem

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// Text colors chosen by [ContrastColor].
const (
	DarkText  = "#1f2937"
	LightText = "#ffffff"
)

var hslRe = regexp.MustCompile(`hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)`)

// ColorFromString derives a deterministic, readable background color from s.
//
// The hash is the 32-bit rolling hash h = h*31 + unit over UTF-16 code units.
// Hue is |h| mod 360, saturation 65-84% and lightness 50-64%.
func ColorFromString(s string) string {
	h, sat, light := hslFromString(s)
	return colorful.Hsl(float64(h), float64(sat)/100, float64(light)/100).Clamped().Hex()
}

// HSLFromString returns the CSS hsl() form of [ColorFromString].
func HSLFromString(s string) string {
	h, sat, light := hslFromString(s)
	return "hsl(" + strconv.Itoa(h) + ", " + strconv.Itoa(sat) + "%, " + strconv.Itoa(light) + "%)"
}

func hslFromString(s string) (hue, sat, light int) {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = hash*31 + int32(unit)
	}
	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % 360), 65 + int(abs%20), 50 + int(abs%15)
}

// ContrastColor returns dark or light text for the given background.
// Hex backgrounds use perceived brightness; hsl() backgrounds use lightness.
// Anything else gets dark text.
func ContrastColor(background string) string {
	bg := strings.TrimSpace(background)
	if strings.HasPrefix(bg, "#") {
		c, err := colorful.Hex(bg)
		if err != nil {
			return DarkText
		}
		r, g, b := c.RGB255()
		brightness := (float64(r)*299 + float64(g)*587 + float64(b)*114) / 1000
		if brightness > 155 {
			return DarkText
		}
		return LightText
	}
	if m := hslRe.FindStringSubmatch(bg); m != nil {
		lightness, _ := strconv.Atoi(m[3])
		if lightness > 60 {
			return DarkText
		}
		return LightText
	}
	return DarkText
}

// ToHex normalizes a "#rgb", "#rrggbb" or "hsl()" color to "#rrggbb".
// Unparseable input returns fallback.
func ToHex(color, fallback string) string {
	s := strings.TrimSpace(color)
	if strings.HasPrefix(s, "#") {
		if c, err := colorful.Hex(s); err == nil {
			return c.Hex()
		}
		return fallback
	}
	if m := hslRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		sat, _ := strconv.Atoi(m[2])
		light, _ := strconv.Atoi(m[3])
		return colorful.Hsl(float64(h), float64(sat)/100, float64(light)/100).Clamped().Hex()
	}
	return fallback
}
