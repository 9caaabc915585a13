package headless

import (
	"sync"

	"github.com/mj1618/browser-host/internal/platform"
)

// ViewManager tracks the tab views of one headless window.
type ViewManager struct {
	engine    *Engine
	windowID  int
	incognito bool

	mu         sync.Mutex
	views      []*View
	selected   *View
	fullscreen bool
	fixes      int
	cleared    bool
}

func (vm *ViewManager) add(v *View, selected bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.views = append(vm.views, v)
	if selected || vm.selected == nil {
		vm.selected = v
	}
}

// Select makes v the selected view.
func (vm *ViewManager) Select(v *View) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.selected = v
}

func (vm *ViewManager) FixBounds() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.fixes++
}

// Fixes returns how many times FixBounds ran.
func (vm *ViewManager) Fixes() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.fixes
}

func (vm *ViewManager) Selected() platform.ContentView {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.selected == nil {
		return nil
	}
	return vm.selected
}

func (vm *ViewManager) SetFullscreen(on bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.fullscreen = on
}

// Fullscreen reports the HTML fullscreen flag.
func (vm *ViewManager) Fullscreen() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.fullscreen
}

// Clear destroys every tab view of the window.
func (vm *ViewManager) Clear() {
	vm.mu.Lock()
	views := vm.views
	vm.views = nil
	vm.selected = nil
	vm.cleared = true
	vm.mu.Unlock()

	for _, v := range views {
		vm.engine.DestroyView(v.id)
	}
}

// Views returns the tab views in creation order.
func (vm *ViewManager) Views() []*View {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]*View(nil), vm.views...)
}

// Cleared reports whether Clear ran.
func (vm *ViewManager) Cleared() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.cleared
}

// Dialog counts the calls made on one overlay dialog.
type Dialog struct {
	role     platform.DialogRole
	windowID int

	mu         sync.Mutex
	rearranges int
	hides      int
	destroyed  int
}

func (d *Dialog) Role() platform.DialogRole { return d.role }

func (d *Dialog) Rearrange() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rearranges++
}

func (d *Dialog) Hide() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hides++
}

func (d *Dialog) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed++
}

// Counts returns (rearranges, hides, destroys).
func (d *Dialog) Counts() (rearranges, hides, destroys int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rearranges, d.hides, d.destroyed
}
