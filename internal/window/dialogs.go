package window

import (
	"sync"

	"github.com/mj1618/browser-host/internal/platform"
)

// Roles lists every dialog an app window owns, in creation order.
var Roles = []platform.DialogRole{
	platform.DialogMenu,
	platform.DialogSearch,
	platform.DialogTabGroup,
	platform.DialogFind,
	platform.DialogPermissions,
	platform.DialogAuth,
	platform.DialogFormFill,
	platform.DialogCredentials,
	platform.DialogPreview,
}

// ResizePolicy is what a dialog does when its window resizes.
type ResizePolicy int

const (
	PolicyRearrange ResizePolicy = iota
	PolicyHide
	PolicyIgnore
)

// PolicyFor returns the resize policy of a role.
func PolicyFor(role platform.DialogRole) ResizePolicy {
	switch role {
	case platform.DialogMenu:
		return PolicyHide
	case platform.DialogPreview:
		return PolicyIgnore
	default:
		return PolicyRearrange
	}
}

// Dialogs owns the overlay dialogs of one window.
type Dialogs struct {
	mu    sync.Mutex
	order []platform.DialogRole
	set   map[platform.DialogRole]platform.Dialog
}

// NewDialogs creates one dialog per role.
func NewDialogs(overlays platform.Overlays, win platform.NativeWindow, roles []platform.DialogRole) *Dialogs {
	d := &Dialogs{set: make(map[platform.DialogRole]platform.Dialog, len(roles))}
	for _, role := range roles {
		if _, ok := d.set[role]; ok {
			continue
		}
		d.order = append(d.order, role)
		d.set[role] = overlays.NewDialog(role, win)
	}
	return d
}

// Get returns the dialog for role, or nil once destroyed.
func (d *Dialogs) Get(role platform.DialogRole) platform.Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.set[role]
}

// Len returns the number of live dialogs.
func (d *Dialogs) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.set)
}

func (d *Dialogs) snapshot() ([]platform.DialogRole, map[platform.DialogRole]platform.Dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := make(map[platform.DialogRole]platform.Dialog, len(d.set))
	for k, v := range d.set {
		set[k] = v
	}
	return append([]platform.DialogRole(nil), d.order...), set
}

// Rearrange applies each dialog's resize policy.
func (d *Dialogs) Rearrange() {
	order, set := d.snapshot()
	for _, role := range order {
		dlg, ok := set[role]
		if !ok {
			continue
		}
		switch PolicyFor(role) {
		case PolicyRearrange:
			dlg.Rearrange()
		case PolicyHide:
			dlg.Hide()
		}
	}
}

// Hide hides one dialog.
func (d *Dialogs) Hide(role platform.DialogRole) {
	if dlg := d.Get(role); dlg != nil {
		dlg.Hide()
	}
}

// DestroyAll destroys every dialog. Later calls do nothing.
func (d *Dialogs) DestroyAll() {
	d.mu.Lock()
	order, set := d.order, d.set
	d.order, d.set = nil, map[platform.DialogRole]platform.Dialog{}
	d.mu.Unlock()

	for _, role := range order {
		set[role].Destroy()
	}
}
