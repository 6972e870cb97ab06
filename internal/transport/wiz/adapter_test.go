package wiz

import (
	"context"
	"encoding/json"
	"testing"
)

func intp(v int) *int    { return &v }
func u8p(v uint8) *uint8 { return &v }

func TestEncodeSetPilot(t *testing.T) {
	tests := []struct {
		name  string
		pilot Pilot
		want  string
	}{
		{
			"rgb",
			Pilot{State: true, Dimming: 60, R: u8p(255), G: u8p(0), B: u8p(128)},
			`{"id":1,"method":"setPilot","params":{"state":true,"dimming":60,"r":255,"g":0,"b":128}}`,
		},
		{
			"cct",
			Pilot{State: true, Dimming: 100, Temp: intp(4000)},
			`{"id":1,"method":"setPilot","params":{"state":true,"dimming":100,"temp":4000}}`,
		},
		{
			"off",
			Pilot{State: false, Dimming: 20, Temp: intp(2700)},
			`{"id":1,"method":"setPilot","params":{"state":false,"dimming":20,"temp":2700}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeSetPilot(tt.pilot)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("payload = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeSetPilotNeverMixesTempAndRgb(t *testing.T) {
	payload, err := EncodeSetPilot(Pilot{State: true, Dimming: 50, Temp: intp(3000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var msg struct {
		Params map[string]any `json:"params"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	for _, key := range []string{"r", "g", "b"} {
		if _, ok := msg.Params[key]; ok {
			t.Errorf("temp payload carries %q", key)
		}
	}
}

func TestAdapterSendAfterClose(t *testing.T) {
	a, err := Dial("127.0.0.1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if a.IP() != "127.0.0.1" {
		t.Errorf("ip = %q", a.IP())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Double close is a no-op.
	if err := a.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := a.Send(context.Background(), Pilot{State: true, Dimming: 50}); err == nil {
		t.Error("expected send on closed adapter to fail")
	}
}
