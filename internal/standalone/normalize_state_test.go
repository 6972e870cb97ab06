package standalone

import (
	"testing"
)

func boolPtr(v bool) *bool      { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int         { return &v }

func TestNormalizeStateDefaults(t *testing.T) {
	st := NormalizeState(Patch{}, nil, "wiz")
	if st.Bri != 75 || st.Hue != 30 || st.Sat != 90 {
		t.Errorf("default color = bri %v hue %v sat %v", st.Bri, st.Hue, st.Sat)
	}
	if st.TransitionMs != 200 {
		t.Errorf("wiz transitionMs = %d, want 200", st.TransitionMs)
	}
	if st.SpeedHz != 1.2 || st.SpeedHzMin != 0.6 || st.SpeedHzMax != 3.2 {
		t.Errorf("default speed = %v [%v,%v]", st.SpeedHz, st.SpeedHzMin, st.SpeedHzMax)
	}

	hue := NormalizeState(Patch{}, nil, "hue")
	if hue.TransitionMs != 400 {
		t.Errorf("hue transitionMs = %d, want 400", hue.TransitionMs)
	}
}

func TestNormalizeStateModeImplications(t *testing.T) {
	tests := []struct {
		name        string
		patch       Patch
		prev        *State
		wantAnimate bool
		wantStatic  bool
	}{
		{
			"scene mode turns animation on",
			Patch{Mode: strPtr("scene")},
			&State{Mode: ModeRGB, Static: true},
			true, false,
		},
		{
			"auto mode turns animation on",
			Patch{Mode: strPtr("auto")},
			&State{Mode: ModeRGB},
			true, false,
		},
		{
			"re-selecting scene re-fires the implication",
			Patch{Mode: strPtr("scene")},
			&State{Mode: ModeScene, Animate: false, Static: true},
			true, false,
		},
		{
			"explicit animate wins over implication",
			Patch{Mode: strPtr("scene"), Animate: boolPtr(false)},
			&State{Mode: ModeRGB},
			false, false,
		},
		{
			"explicit static wins over implication",
			Patch{Mode: strPtr("auto"), Static: boolPtr(true)},
			&State{Mode: ModeRGB},
			true, true,
		},
		{
			"rgb mode always kills animation",
			Patch{Mode: strPtr("rgb"), Animate: boolPtr(true)},
			&State{Mode: ModeScene, Animate: true},
			false, false,
		},
		{
			"untouched mode leaves flags alone",
			Patch{Bri: f64Ptr(50)},
			&State{Mode: ModeScene, Animate: true},
			true, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NormalizeState(tt.patch, tt.prev, "wiz")
			if st.Animate != tt.wantAnimate || st.Static != tt.wantStatic {
				t.Errorf("animate=%v static=%v, want animate=%v static=%v",
					st.Animate, st.Static, tt.wantAnimate, tt.wantStatic)
			}
		})
	}
}

func TestNormalizeStateClamps(t *testing.T) {
	st := NormalizeState(Patch{
		Bri:          f64Ptr(150),
		Hue:          f64Ptr(-20),
		Sat:          f64Ptr(130),
		TransitionMs: intPtr(-5),
		SpeedHz:      f64Ptr(99),
		RaveStopBri:  f64Ptr(0),
	}, nil, "wiz")

	if st.Bri != 100 {
		t.Errorf("bri = %v, want 100", st.Bri)
	}
	if st.Hue != 0 {
		t.Errorf("hue = %v, want 0", st.Hue)
	}
	if st.Sat != 100 {
		t.Errorf("sat = %v, want 100", st.Sat)
	}
	if st.TransitionMs != 0 {
		t.Errorf("transitionMs = %v, want 0", st.TransitionMs)
	}
	if st.SpeedHz != MaxHz {
		t.Errorf("speedHz = %v, want %v", st.SpeedHz, MaxHz)
	}
	if st.RaveStopBri != 1 {
		t.Errorf("raveStopBri = %v, want 1", st.RaveStopBri)
	}
}

func TestNormalizeStatePairedRanges(t *testing.T) {
	st := NormalizeState(Patch{
		SpeedHzMin:   f64Ptr(5),
		SpeedHzMax:   f64Ptr(1),
		HueMin:       f64Ptr(300),
		HueMax:       f64Ptr(60),
		SatMin:       f64Ptr(90),
		SatMax:       f64Ptr(40),
		CctMinKelvin: f64Ptr(6000),
		CctMaxKelvin: f64Ptr(2700),
	}, nil, "wiz")

	if st.SpeedHzMin != 1 || st.SpeedHzMax != 5 {
		t.Errorf("speed range = [%v,%v], want [1,5]", st.SpeedHzMin, st.SpeedHzMax)
	}
	if st.HueMin != 60 || st.HueMax != 300 {
		t.Errorf("hue range = [%v,%v], want [60,300]", st.HueMin, st.HueMax)
	}
	if st.SatMin != 40 || st.SatMax != 90 {
		t.Errorf("sat range = [%v,%v], want [40,90]", st.SatMin, st.SatMax)
	}
	if st.CctMinKelvin != 2700 || st.CctMaxKelvin != 6000 {
		t.Errorf("cct range = [%v,%v], want [2700,6000]", st.CctMinKelvin, st.CctMaxKelvin)
	}
}

func TestNormalizeStateEnums(t *testing.T) {
	prev := NormalizeState(Patch{}, nil, "wiz")

	st := NormalizeState(Patch{
		Mode:      strPtr("  SCENE "),
		Scene:     strPtr("Bounce"),
		SpeedMode: strPtr("AUDIO"),
		ColorMode: strPtr("cct"),
	}, &prev, "wiz")
	if st.Mode != ModeScene || st.Scene != SceneBounce || st.SpeedMode != SpeedAudio || st.ColorMode != ColorCCT {
		t.Errorf("enums = %q %q %q %q", st.Mode, st.Scene, st.SpeedMode, st.ColorMode)
	}

	// Unknown enum values keep the previous selection.
	st = NormalizeState(Patch{Scene: strPtr("strobe")}, &st, "wiz")
	if st.Scene != SceneBounce {
		t.Errorf("scene = %q, want previous bounce kept", st.Scene)
	}
}

func TestPatchFromRecord(t *testing.T) {
	p, err := PatchFromRecord(map[string]any{
		"on": true, "mode": "scene", "bri": 42.0, "fixture_id": "w1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.On == nil || !*p.On {
		t.Error("on not decoded")
	}
	if p.Mode == nil || *p.Mode != "scene" {
		t.Error("mode not decoded")
	}
	if p.Bri == nil || *p.Bri != 42 {
		t.Error("bri not decoded")
	}
	if p.Scene != nil {
		t.Error("absent field should stay nil")
	}

	if _, err := PatchFromRecord(map[string]any{"bri": "loud"}); err == nil {
		t.Error("expected type error for string bri")
	}
}
