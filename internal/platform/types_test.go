package platform

import "testing"

func TestParseViewType_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want ViewType
	}{
		{"window", ViewWindow},
		{"backgroundPage", ViewBackgroundPage},
		{"backgroundpage", ViewBackgroundPage},
		{"browserView", ViewBrowserView},
		{"webview", ViewWebview},
		{"REMOTE", ViewRemote},
	}
	for _, tt := range tests {
		got, err := ParseViewType(tt.in)
		if err != nil {
			t.Errorf("ParseViewType(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseViewType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseViewType_Invalid(t *testing.T) {
	for _, s := range []string{"", "tab", "background page"} {
		if _, err := ParseViewType(s); err == nil {
			t.Errorf("ParseViewType(%q) should fail", s)
		}
	}
}

func TestViewType_String(t *testing.T) {
	if got := ViewBackgroundPage.String(); got != "backgroundPage" {
		t.Errorf("String() = %q, want backgroundPage", got)
	}
	if got := ViewType(99).String(); got != "ViewType(99)" {
		t.Errorf("String() = %q, want ViewType(99)", got)
	}
}
