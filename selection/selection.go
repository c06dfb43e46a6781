// Package selection is the single source of truth for which generated assets
// are currently selected across the application's views.
package selection

import (
	"sync"
)

// Kind tags a selected asset by what it is.
type Kind string

const (
	KindImage   Kind = "image"
	KindModel   Kind = "model"
	KindTexture Kind = "texture"
)

// ChangeCallback is invoked after an asset is added to or removed from the
// selection.
type ChangeCallback func(path string, kind Kind, selected bool)

// CountCallback is invoked with the new selection size after any change.
type CountCallback func(count int)

// Manager tracks the selected assets in insertion order and notifies
// registered callbacks on every change.
type Manager struct {
	mu       sync.RWMutex
	kinds    map[string]Kind
	order    []string
	onChange []ChangeCallback
	onCount  []CountCallback
}

func NewManager() *Manager {
	return &Manager{
		kinds: make(map[string]Kind),
	}
}

// OnChange registers a change notification callback.
func (m *Manager) OnChange(cb ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, cb)
}

// OnCount registers a count notification callback.
func (m *Manager) OnCount(cb CountCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCount = append(m.onCount, cb)
}

// Add puts an asset into the selection. Re-adding an already selected path
// updates its kind without duplicating it or firing callbacks again.
func (m *Manager) Add(path string, kind Kind) {
	m.mu.Lock()
	_, existed := m.kinds[path]
	m.kinds[path] = kind
	if !existed {
		m.order = append(m.order, path)
	}
	change, count := m.callbacksLocked()
	n := len(m.order)
	m.mu.Unlock()

	if existed {
		return
	}
	for _, cb := range change {
		cb(path, kind, true)
	}
	for _, cb := range count {
		cb(n)
	}
}

// Remove drops an asset from the selection. Returns false when it was not
// selected.
func (m *Manager) Remove(path string) bool {
	m.mu.Lock()
	kind, existed := m.kinds[path]
	if existed {
		delete(m.kinds, path)
		for i, p := range m.order {
			if p == path {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	change, count := m.callbacksLocked()
	n := len(m.order)
	m.mu.Unlock()

	if !existed {
		return false
	}
	for _, cb := range change {
		cb(path, kind, false)
	}
	for _, cb := range count {
		cb(n)
	}
	return true
}

// IsSelected reports whether the asset is currently selected.
func (m *Manager) IsSelected(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.kinds[path]
	return ok
}

// Selected returns the selected paths in insertion order, optionally filtered
// by kind. An empty kind returns everything.
func (m *Manager) Selected(kind Kind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	retv := make([]string, 0, len(m.order))
	for _, p := range m.order {
		if kind == "" || m.kinds[p] == kind {
			retv = append(retv, p)
		}
	}
	return retv
}

// Count reports the number of selected assets.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Clear empties the selection, firing a removal notification per asset.
func (m *Manager) Clear() {
	m.mu.Lock()
	removed := make([]string, len(m.order))
	copy(removed, m.order)
	kinds := make(map[string]Kind, len(m.kinds))
	for k, v := range m.kinds {
		kinds[k] = v
	}
	m.kinds = make(map[string]Kind)
	m.order = nil
	change, count := m.callbacksLocked()
	m.mu.Unlock()

	for _, p := range removed {
		for _, cb := range change {
			cb(p, kinds[p], false)
		}
	}
	if len(removed) > 0 {
		for _, cb := range count {
			cb(0)
		}
	}
}

// callbacksLocked snapshots the callback slices so they can be invoked
// outside the lock.
func (m *Manager) callbacksLocked() ([]ChangeCallback, []CountCallback) {
	change := make([]ChangeCallback, len(m.onChange))
	copy(change, m.onChange)
	count := make([]CountCallback, len(m.onCount))
	copy(count, m.onCount)
	return change, count
}
