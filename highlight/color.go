package highlight

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses a CSS color value: a named color, #rgb/#rgba/#rrggbb/
// #rrggbbaa, or an rgb(), rgba(), hsl() or hsla() function.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.RGBA{}, false
	}

	if s == "transparent" {
		return color.RGBA{}, true
	}
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}

	name, args, ok := splitFunction(s)
	if !ok {
		return color.RGBA{}, false
	}
	switch name {
	case "rgb", "rgba":
		return parseRGBArgs(args)
	case "hsl", "hsla":
		return parseHSLArgs(args)
	}
	return color.RGBA{}, false
}

func parseHexColor(hex string) (color.RGBA, bool) {
	for _, ch := range hex {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			return color.RGBA{}, false
		}
	}
	digit := func(i int) uint8 {
		v, _ := strconv.ParseUint(hex[i:i+1], 16, 8)
		return uint8(v)
	}
	pair := func(i int) uint8 {
		v, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		return uint8(v)
	}

	switch len(hex) {
	case 3, 4:
		c := color.RGBA{R: digit(0) * 17, G: digit(1) * 17, B: digit(2) * 17, A: 255}
		if len(hex) == 4 {
			c.A = digit(3) * 17
		}
		return c, true
	case 6, 8:
		c := color.RGBA{R: pair(0), G: pair(2), B: pair(4), A: 255}
		if len(hex) == 8 {
			c.A = pair(6)
		}
		return c, true
	}
	return color.RGBA{}, false
}

// splitFunction splits "name(a, b, c)" or "name(a b c / d)" into the name and
// its arguments.
func splitFunction(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]
	body = strings.ReplaceAll(body, "/", " ")
	body = strings.ReplaceAll(body, ",", " ")
	args := strings.Fields(body)
	if len(args) < 3 || len(args) > 4 {
		return "", nil, false
	}
	return name, args, true
}

func parseRGBArgs(args []string) (color.RGBA, bool) {
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return color.RGBA{}, false
		}
		channels[i] = v
	}
	alpha, ok := parseAlpha(args)
	if !ok {
		return color.RGBA{}, false
	}
	return color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: alpha}, true
}

func parseHSLArgs(args []string) (color.RGBA, bool) {
	hue, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.RGBA{}, false
	}
	sat, ok := parsePercent(args[1])
	if !ok {
		return color.RGBA{}, false
	}
	light, ok := parsePercent(args[2])
	if !ok {
		return color.RGBA{}, false
	}
	alpha, ok := parseAlpha(args)
	if !ok {
		return color.RGBA{}, false
	}

	hue = math.Mod(math.Mod(hue, 360)+360, 360) / 360
	var r, g, b float64
	if sat == 0 {
		r, g, b = light, light, light
	} else {
		var q float64
		if light < 0.5 {
			q = light * (1 + sat)
		} else {
			q = light + sat - light*sat
		}
		p := 2*light - q
		r = hueToRGB(p, q, hue+1.0/3)
		g = hueToRGB(p, q, hue)
		b = hueToRGB(p, q, hue-1.0/3)
	}
	return color.RGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: alpha}, true
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// parseChannel parses an rgb() channel given as 0-255 or a percentage.
func parseChannel(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		f, ok := parsePercent(s)
		return toByte(f), ok
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return toByte(f / 255), true
}

func parsePercent(s string) (float64, bool) {
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return clamp01(f / 100), true
}

func parseAlpha(args []string) (uint8, bool) {
	if len(args) < 4 {
		return 255, true
	}
	if strings.HasSuffix(args[3], "%") {
		f, ok := parsePercent(args[3])
		return toByte(f), ok
	}
	f, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return 0, false
	}
	return toByte(f), true
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func toByte(f float64) uint8 {
	return uint8(math.Round(clamp01(f) * 255))
}
