package graphapi

import (
	"errors"
	"log/slog"
	"sort"
)

// ErrControlGone is returned by a ValueGetter whose underlying UI control has
// been destroyed. The binding is skipped; a dead control must never abort a
// submission.
var ErrControlGone = errors.New("ui control no longer exists")

// BindingKey addresses one positional parameter slot in a workflow. Matching
// requires both the node id and the node type, which defends against id
// collisions across differently-typed nodes.
type BindingKey struct {
	NodeType   string
	NodeID     string
	ParamIndex int
}

// ValueGetter reads the live value out of a UI control.
type ValueGetter interface {
	GetValue() (interface{}, error)
}

// ValueGetterFunc adapts a closure to the ValueGetter interface.
type ValueGetterFunc func() (interface{}, error)

func (f ValueGetterFunc) GetValue() (interface{}, error) {
	return f()
}

// BindingSet is the live mapping from UI controls to workflow slots. It is
// built while a parameter panel is constructed for a workflow and consumed
// once per submission; when the workflow selection changes it is discarded
// and rebuilt.
type BindingSet struct {
	bindings map[BindingKey]ValueGetter
}

func NewBindingSet() *BindingSet {
	return &BindingSet{
		bindings: make(map[BindingKey]ValueGetter),
	}
}

// Bind registers (or replaces) the getter for one slot.
func (b *BindingSet) Bind(key BindingKey, getter ValueGetter) {
	b.bindings[key] = getter
}

// BindFunc is a convenience wrapper around Bind for closures.
func (b *BindingSet) BindFunc(nodeType, nodeID string, paramIndex int, getter func() (interface{}, error)) {
	b.Bind(BindingKey{NodeType: nodeType, NodeID: nodeID, ParamIndex: paramIndex}, ValueGetterFunc(getter))
}

// Len reports the number of registered bindings.
func (b *BindingSet) Len() int {
	return len(b.bindings)
}

// ApplyBindings returns a deep copy of g with the latest on-screen values
// written over the stored positional values. Bindings whose control is gone
// or whose node no longer exists are skipped; a single summary is logged per
// call rather than one line per parameter.
func ApplyBindings(g *Graph, b *BindingSet) *Graph {
	retv := g.Clone()
	if b == nil || len(b.bindings) == 0 {
		return retv
	}

	// stable application order keeps repeated submissions deterministic
	keys := make([]BindingKey, 0, len(b.bindings))
	for k := range b.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].NodeID != keys[j].NodeID {
			return keys[i].NodeID < keys[j].NodeID
		}
		if keys[i].NodeType != keys[j].NodeType {
			return keys[i].NodeType < keys[j].NodeType
		}
		return keys[i].ParamIndex < keys[j].ParamIndex
	})

	nodesTouched := make(map[string]bool)
	changed := 0
	skipped := 0

	for _, key := range keys {
		value, err := b.bindings[key].GetValue()
		if err != nil {
			slog.Debug("skipping binding, control unavailable", "node", key.NodeID, "index", key.ParamIndex, "error", err)
			skipped++
			continue
		}

		node := retv.GetNodeByID(key.NodeID)
		if node == nil || node.Type != key.NodeType {
			slog.Debug("skipping binding, no matching node", "node", key.NodeID, "type", key.NodeType)
			skipped++
			continue
		}

		node.SetWidgetValue(key.ParamIndex, value)
		nodesTouched[key.NodeID] = true
		changed++
	}

	slog.Debug("applied widget bindings",
		"nodes_touched", len(nodesTouched), "parameters_changed", changed, "skipped", skipped)
	return retv
}
