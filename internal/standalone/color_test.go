package standalone

import "testing"

func TestHsvToRgb(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v float64
		r, g, b uint8
	}{
		{"red", 0, 100, 100, 255, 0, 0},
		{"green", 120, 100, 100, 0, 255, 0},
		{"blue", 240, 100, 100, 0, 0, 255},
		{"yellow", 60, 100, 100, 255, 255, 0},
		{"cyan", 180, 100, 100, 0, 255, 255},
		{"magenta", 300, 100, 100, 255, 0, 255},
		{"white", 0, 0, 100, 255, 255, 255},
		{"black", 0, 0, 0, 0, 0, 0},
		{"half bright red", 0, 100, 50, 128, 0, 0},
		{"pastel", 200, 80, 100, 51, 187, 255},
		{"hue wraps", 360, 100, 100, 255, 0, 0},
		{"negative hue wraps", -120, 100, 100, 0, 0, 255},
		{"overdriven inputs clamp", 0, 150, 150, 255, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := HsvToRgb(tt.h, tt.s, tt.v)
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("HsvToRgb(%v,%v,%v) = (%d,%d,%d), want (%d,%d,%d)",
					tt.h, tt.s, tt.v, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestKelvinToMired(t *testing.T) {
	tests := []struct {
		kelvin float64
		want   int
	}{
		{2000, 500},
		{2700, 370},
		{4000, 250},
		{6500, 154},
		{10000, 153}, // clamped to the bridge floor
		{1000, 500},  // clamped to the bridge ceiling
		{0, 500},
		{-50, 500},
	}
	for _, tt := range tests {
		if got := KelvinToMired(tt.kelvin); got != tt.want {
			t.Errorf("KelvinToMired(%v) = %d, want %d", tt.kelvin, got, tt.want)
		}
	}
}
