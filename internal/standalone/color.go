package standalone

import "math"

// HsvToRgb converts h (0-360), s (0-100), v (0-100) to 8-bit RGB channels.
// Used for every non-CCT send.
func HsvToRgb(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp(s, 0, 100) / 100
	v = clamp(v, 0, 100) / 100

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) uint8 {
	n := math.Round(v * 255)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// KelvinToMired converts a color temperature to the mired scale Hue uses,
// clamped to the bridge-accepted [153,500] range.
func KelvinToMired(kelvin float64) int {
	if kelvin <= 0 {
		return 500
	}
	m := int(math.Round(1e6 / kelvin))
	if m < 153 {
		return 153
	}
	if m > 500 {
		return 500
	}
	return m
}
