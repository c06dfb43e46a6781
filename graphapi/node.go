package graphapi

import (
	"encoding/json"
	"strconv"
)

// Node represents the encapsulation of an individual processing step within a Graph.
// IDs are kept as canonical decimal strings so that both editor-shape workflows
// (integer ids) and flat API-shape workflows (string keys) land on the same type.
type Node struct {
	ID           string
	Type         string
	Title        string
	WidgetValues []interface{}
	// Declared input slot names in slot order, from the editor shape. Used for
	// best-effort parameter mapping when no positional schema is registered.
	InputNames []string
	// Scalar inputs keyed by name, from the flat API shape. nil for editor-shape nodes.
	NamedInputs map[string]interface{}
	// Input slots that carry links (editor shape), by slot index.
	InputLinks map[int]int
	// Position in the parent graph's node list. Classification tie-breaking is
	// stable with respect to this ordering.
	Order int

	// Fields we don't interpret are carried through verbatim so that
	// re-serialization does not lose editor state (positions, colors, flags).
	extras map[string]json.RawMessage
}

// inputSlot is the editor-shape declaration of a node input. The raw form is
// kept in the node's extras so serialization stays lossless.
type inputSlot struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Link *int   `json:"link"`
}

// editor-shape fields we interpret; everything else goes to extras
var editorNodeFields = map[string]bool{
	"id":             true,
	"type":           true,
	"title":          true,
	"widgets_values": true,
	"inputs":         true,
}

func (n *Node) UnmarshalJSON(b []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["id"]; ok {
		n.ID = flexibleID(v)
	}
	if v, ok := raw["type"]; ok {
		json.Unmarshal(v, &n.Type)
	}
	if v, ok := raw["title"]; ok {
		json.Unmarshal(v, &n.Title)
	}
	if v, ok := raw["widgets_values"]; ok {
		json.Unmarshal(v, &n.WidgetValues)
	}
	if v, ok := raw["inputs"]; ok {
		var slots []inputSlot
		if err := json.Unmarshal(v, &slots); err == nil {
			n.InputNames = make([]string, len(slots))
			for i, s := range slots {
				n.InputNames[i] = s.Name
				if s.Link != nil {
					if n.InputLinks == nil {
						n.InputLinks = make(map[int]int)
					}
					n.InputLinks[i] = *s.Link
				}
			}
		}
	}

	n.extras = make(map[string]json.RawMessage)
	for k, v := range raw {
		if !editorNodeFields[k] || k == "inputs" {
			n.extras[k] = v
		}
	}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(n.extras)+5)
	for k, v := range n.extras {
		out[k] = v
	}
	if id, err := strconv.Atoi(n.ID); err == nil {
		out["id"] = id
	} else {
		out["id"] = n.ID
	}
	out["type"] = n.Type
	if n.Title != "" {
		out["title"] = n.Title
	}
	if n.WidgetValues != nil {
		out["widgets_values"] = n.WidgetValues
	}
	return json.Marshal(out)
}

// flexibleID renders a JSON number or string as a canonical id string.
func flexibleID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatInt(int64(f), 10)
	}
	return string(raw)
}

// InputIndex returns the slot index of a declared input with the given name,
// or -1 when the node declares no such input.
func (n *Node) InputIndex(name string) int {
	for i, in := range n.InputNames {
		if in == name {
			return i
		}
	}
	return -1
}

// SetWidgetValue writes a value into the positional widget array, growing the
// array with null padding when idx is beyond its current length. Workflows are
// not guaranteed to declare trailing default-valued slots.
func (n *Node) SetWidgetValue(idx int, v interface{}) {
	for len(n.WidgetValues) <= idx {
		n.WidgetValues = append(n.WidgetValues, nil)
	}
	n.WidgetValues[idx] = v
}

// WidgetValue returns the value at idx, or nil when the slot does not exist.
func (n *Node) WidgetValue(idx int) interface{} {
	if idx < 0 || idx >= len(n.WidgetValues) {
		return nil
	}
	return n.WidgetValues[idx]
}

func (n *Node) clone() *Node {
	nn := *n
	if n.WidgetValues != nil {
		nn.WidgetValues = make([]interface{}, len(n.WidgetValues))
		copy(nn.WidgetValues, n.WidgetValues)
	}
	if n.InputNames != nil {
		nn.InputNames = append([]string(nil), n.InputNames...)
	}
	if n.NamedInputs != nil {
		nn.NamedInputs = make(map[string]interface{}, len(n.NamedInputs))
		for k, v := range n.NamedInputs {
			nn.NamedInputs[k] = v
		}
	}
	if n.InputLinks != nil {
		nn.InputLinks = make(map[int]int, len(n.InputLinks))
		for k, v := range n.InputLinks {
			nn.InputLinks[k] = v
		}
	}
	if n.extras != nil {
		nn.extras = make(map[string]json.RawMessage, len(n.extras))
		for k, v := range n.extras {
			nn.extras[k] = v
		}
	}
	return &nn
}
