package window

import (
	"testing"

	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/platform/headless"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		role platform.DialogRole
		want ResizePolicy
	}{
		{platform.DialogMenu, PolicyHide},
		{platform.DialogPreview, PolicyIgnore},
		{platform.DialogSearch, PolicyRearrange},
		{platform.DialogFind, PolicyRearrange},
		{platform.DialogPermissions, PolicyRearrange},
		{platform.DialogAuth, PolicyRearrange},
		{platform.DialogFormFill, PolicyRearrange},
		{platform.DialogCredentials, PolicyRearrange},
		{platform.DialogTabGroup, PolicyRearrange},
	}
	for _, tt := range tests {
		if got := PolicyFor(tt.role); got != tt.want {
			t.Errorf("PolicyFor(%s) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestDialogs_DestroyAll(t *testing.T) {
	e := headless.New()
	nw, _ := e.NewWindow(platform.WindowOptions{})
	d := NewDialogs(e, nw, Roles)

	if d.Len() != len(Roles) {
		t.Fatalf("expected %d dialogs, got %d", len(Roles), d.Len())
	}
	d.Hide(platform.DialogSearch)
	if _, hides, _ := e.DialogFor(nw.ID(), platform.DialogSearch).Counts(); hides != 1 {
		t.Errorf("hide: %d", hides)
	}

	d.DestroyAll()
	d.DestroyAll()
	d.Rearrange()

	for _, role := range Roles {
		r, _, destroys := e.DialogFor(nw.ID(), role).Counts()
		if destroys != 1 {
			t.Errorf("%s destroyed %d times", role, destroys)
		}
		if r != 0 {
			t.Errorf("%s rearranged after destroy", role)
		}
		if d.Get(role) != nil {
			t.Errorf("%s still reachable", role)
		}
	}
}

func TestNewDialogs_DedupesRoles(t *testing.T) {
	e := headless.New()
	nw, _ := e.NewWindow(platform.WindowOptions{})
	d := NewDialogs(e, nw, []platform.DialogRole{platform.DialogMenu, platform.DialogMenu})
	if d.Len() != 1 {
		t.Errorf("got %d dialogs", d.Len())
	}
}
