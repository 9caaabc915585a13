package model

import (
	"encoding/json"
	"testing"
)

func TestPlacement_EmptyMarshalsToEmptyObject(t *testing.T) {
	b, err := json.Marshal(Placement{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{}" {
		t.Errorf("got %s, want {}", b)
	}
}

func TestPlacement_Unmarshal(t *testing.T) {
	var p Placement
	data := `{"bounds":{"x":1,"y":2,"width":3,"height":4},"maximized":true}`
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatal(err)
	}
	if p.Bounds == nil {
		t.Fatal("expected bounds")
	}
	if *p.Bounds != (Bounds{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("bounds: got %+v", *p.Bounds)
	}
	if !p.Maximized || p.Fullscreen {
		t.Errorf("flags: maximized=%v fullscreen=%v", p.Maximized, p.Fullscreen)
	}
}

func TestTab_QueryFlagsOmittedByDefault(t *testing.T) {
	b, err := json.Marshal(Tab{ID: 1})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["lastFocusedWindow"]; ok {
		t.Error("lastFocusedWindow should be omitted")
	}
	if _, ok := m["windowId"]; !ok {
		t.Error("windowId should always be present")
	}
}

func TestCookieDetails_Filter(t *testing.T) {
	d := CookieDetails{URL: "https://a.example.com/", Name: "sid", Value: "x", Path: "/p"}
	f := d.Filter()
	if f.URL != d.URL || f.Name != "sid" || f.Path != "/p" || f.Domain != "" {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestBounds_IsZero(t *testing.T) {
	if !(Bounds{}).IsZero() {
		t.Error("empty bounds should be zero")
	}
	if (Bounds{X: 5, Width: 10, Height: 10}).IsZero() {
		t.Error("sized bounds should not be zero")
	}
}
