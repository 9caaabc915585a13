package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/mj1618/browser-host/internal/app"
	"github.com/mj1618/browser-host/internal/config"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform/headless"
	"github.com/mj1618/browser-host/internal/window"
)

func newTestApp(t *testing.T) (*app.App, *headless.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	e := headless.New()
	a, err := app.New(cfg, e.Provider(), nil, app.WithScheduler(window.NewManualScheduler()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)
	return a, e
}

func mustParse(t *testing.T, src string) []map[string]map[string]interface{} {
	t.Helper()
	steps, err := parseSteps([]byte(src))
	if err != nil {
		t.Fatalf("parseSteps: %v", err)
	}
	return steps
}

func TestParseSteps_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "no steps provided on stdin"},
		{"whitespace", "  \n\t", "no steps provided on stdin"},
		{"empty list", "[]", "no steps provided"},
		{"not a list", "window: {}", "failed to parse YAML steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSteps([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

func TestRunSteps_CreateAndQueryTab(t *testing.T) {
	a, _ := newTestApp(t)
	steps := mustParse(t, `
- window: { as: win }
- spawn: { type: backgroundPage, as: bg }
- invoke: { view: $bg, channel: api-tabs-create, args: [{ url: "https://example.com" }] }
- invoke: { channel: api-tabs-query }
`)

	res := runSteps(context.Background(), a, steps, true)
	if !res.OK {
		t.Fatalf("batch failed: %+v", res)
	}
	if res.Completed != 4 || res.Steps != 4 {
		t.Errorf("completed %d/%d, want 4/4", res.Completed, res.Steps)
	}

	created, ok := res.Results[2].Result.(*model.Tab)
	if !ok || created == nil {
		t.Fatalf("create result = %#v, want *model.Tab", res.Results[2].Result)
	}
	if created.URL != "https://example.com" {
		t.Errorf("created url = %q", created.URL)
	}

	w, _ := a.Window(res.Results[0].ID)
	if created.WindowID != w.Native().WebContents().ID() {
		t.Errorf("tab window = %d, want ui view %d", created.WindowID, w.Native().WebContents().ID())
	}

	// The query step defaults to the spawned background page as sender.
	if res.Results[3].View != res.Results[1].ID {
		t.Errorf("query sender = %d, want %d", res.Results[3].View, res.Results[1].ID)
	}
	tabs, ok := res.Results[3].Result.([]model.Tab)
	if !ok {
		t.Fatalf("query result = %#v, want []model.Tab", res.Results[3].Result)
	}
	found := false
	for _, tab := range tabs {
		if tab.ID == created.ID {
			found = true
			if !tab.Active {
				t.Error("created tab should be active")
			}
		}
	}
	if !found {
		t.Errorf("created tab %d missing from query %+v", created.ID, tabs)
	}
}

func TestRunSteps_SendScopedWindowChannel(t *testing.T) {
	a, e := newTestApp(t)
	steps := mustParse(t, `
- window: { as: win }
- send: { channel: window-toggle-maximize-$win }
`)

	res := runSteps(context.Background(), a, steps, true)
	if !res.OK {
		t.Fatalf("batch failed: %+v", res)
	}
	nw := e.Window(res.Results[0].ID)
	if !nw.IsMaximized() {
		t.Error("window should be maximized after toggle")
	}
	if len(nw.UI().MessagesOn(window.ChannelTabsResize)) == 0 {
		t.Error("toggle should notify the ui with tabs-resize")
	}
}

func TestRunSteps_CloseWindow(t *testing.T) {
	a, _ := newTestApp(t)
	steps := mustParse(t, `
- window: { as: win }
- close-window: { id: $win }
- close-window: { id: $win }
`)

	res := runSteps(context.Background(), a, steps, false)
	if res.OK {
		t.Fatal("second close should fail")
	}
	if res.Completed != 2 {
		t.Errorf("completed = %d, want 2", res.Completed)
	}
	if len(a.AppWindows()) != 0 {
		t.Errorf("windows = %d, want 0", len(a.AppWindows()))
	}
}

func TestRunSteps_StopOnError(t *testing.T) {
	a, _ := newTestApp(t)
	src := `
- bogus: {}
- window: {}
`
	res := runSteps(context.Background(), a, mustParse(t, src), true)
	if res.OK {
		t.Error("expected failure")
	}
	if len(res.Results) != 1 {
		t.Errorf("results = %d, want 1 when stopping on error", len(res.Results))
	}
	if !strings.Contains(res.Error, "unknown step type") {
		t.Errorf("error = %q", res.Error)
	}

	res = runSteps(context.Background(), a, mustParse(t, src), false)
	if len(res.Results) != 2 || res.Completed != 1 {
		t.Errorf("results = %d completed = %d, want 2 and 1", len(res.Results), res.Completed)
	}
}

func TestRunSteps_Validation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"sleep without ms", "- sleep: {}", "ms must be > 0"},
		{"invoke without channel", "- invoke: {}", "channel is required"},
		{"unknown view", "- invoke: { view: 999, channel: api-tabs-query }", "view 999 not found"},
		{"args not a list", "- invoke: { channel: api-tabs-query, args: 3 }", "args must be a list"},
		{"unknown view type", "- spawn: { type: applet }", "unknown view type"},
		{"two keys", "- { window: {}, sleep: { ms: 1 } }", "expected exactly one step key"},
		{"unhandled channel", "- invoke: { channel: nope }", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)
			res := runSteps(context.Background(), a, mustParse(t, tt.src), true)
			if res.OK {
				t.Fatal("expected failure")
			}
			if !strings.Contains(res.Error, tt.want) {
				t.Errorf("error = %q, want substring %q", res.Error, tt.want)
			}
		})
	}
}

func TestRunSteps_Sleep(t *testing.T) {
	a, _ := newTestApp(t)
	res := runSteps(context.Background(), a, mustParse(t, "- sleep: { ms: 1 }"), true)
	if !res.OK {
		t.Fatalf("batch failed: %+v", res)
	}
	if res.Results[0].Elapsed != "1ms" {
		t.Errorf("elapsed = %q", res.Results[0].Elapsed)
	}
}

func TestBatchExpand(t *testing.T) {
	b := &batch{vars: map[string]int{"win": 7}}
	got := b.expand(map[string]interface{}{
		"id":      "$win",
		"channel": "window-close-$win",
		"list":    []interface{}{"$win", "x"},
		"other":   "$missing",
	}).(map[string]interface{})

	if got["id"] != 7 {
		t.Errorf("id = %#v, want 7", got["id"])
	}
	if got["channel"] != "window-close-7" {
		t.Errorf("channel = %#v", got["channel"])
	}
	if list := got["list"].([]interface{}); list[0] != 7 || list[1] != "x" {
		t.Errorf("list = %#v", list)
	}
	if got["other"] != "$missing" {
		t.Errorf("other = %#v", got["other"])
	}
	if m, ok := b.expand(nil).(map[string]interface{}); !ok || len(m) != 0 {
		t.Errorf("expand(nil) = %#v, want empty map", m)
	}
}
