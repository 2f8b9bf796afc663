package jsontime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMilli_RoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	data, err := json.Marshal(Milli(now))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var restored Milli
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !restored.Time().Equal(now) {
		t.Errorf("round trip: got %v, want %v", restored.Time(), now)
	}
}

func TestMilli_Zero(t *testing.T) {
	data, err := json.Marshal(Milli{})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != "0" {
		t.Errorf("zero Milli marshals to %s; want 0", data)
	}

	var m Milli
	if err := json.Unmarshal([]byte("0"), &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !m.IsZero() {
		t.Errorf("unmarshaled 0 is not zero: %v", m)
	}
}

func TestMilli_Ordering(t *testing.T) {
	a := Milli(time.UnixMilli(1000))
	b := Milli(time.UnixMilli(2000))
	if !a.Before(b) {
		t.Errorf("a.Before(b) = false")
	}
	if !b.After(a) {
		t.Errorf("b.After(a) = false")
	}
}
