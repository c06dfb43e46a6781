package graphapi

import (
	"encoding/json"
)

// Graph is the in-memory form of a workflow: an ordered list of nodes plus the
// links between them. Both supported serialization shapes normalize to this
// one type; see Normalize.
type Graph struct {
	Nodes []*Node
	Links []*Link

	nodesByID map[string]*Node
	// top-level fields we don't interpret (groups, version, last_node_id, ...)
	extras map[string]json.RawMessage
}

// NewGraph returns an empty graph. Downstream stages treat an empty graph as
// the total-failure fallback value, so it is always safe to hand around.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make([]*Node, 0),
		Links:     make([]*Link, 0),
		nodesByID: make(map[string]*Node),
	}
}

// editor-shape fields we interpret; everything else is carried through
var editorGraphFields = map[string]bool{
	"nodes": true,
	"links": true,
}

func (t *Graph) UnmarshalJSON(b []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["nodes"]; ok {
		if err := json.Unmarshal(v, &t.Nodes); err != nil {
			return err
		}
	}
	if v, ok := raw["links"]; ok {
		if err := json.Unmarshal(v, &t.Links); err != nil {
			return err
		}
	}

	t.extras = make(map[string]json.RawMessage)
	for k, v := range raw {
		if !editorGraphFields[k] {
			t.extras[k] = v
		}
	}

	t.reindex()
	return nil
}

func (t *Graph) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.extras)+2)
	for k, v := range t.extras {
		out[k] = v
	}
	out["nodes"] = t.Nodes
	out["links"] = t.Links
	return json.Marshal(out)
}

func (t *Graph) reindex() {
	t.nodesByID = make(map[string]*Node, len(t.Nodes))
	for i, n := range t.Nodes {
		n.Order = i
		t.nodesByID[n.ID] = n
	}
}

// GetNodeByID returns the node with the given id, or nil.
func (t *Graph) GetNodeByID(id string) *Node {
	val, ok := t.nodesByID[id]
	if ok {
		return val
	}
	return nil
}

// GetNodesWithType retrieves all nodes in the graph that match a specified type.
//
// Parameters:
//   - nodeType: The type of node to filter by.
//
// Returns:
//   - A slice of pointers to Nodes that match the specified type, in list order.
func (t *Graph) GetNodesWithType(nodeType string) []*Node {
	retv := make([]*Node, 0)
	for _, n := range t.Nodes {
		if n.Type == nodeType {
			retv = append(retv, n)
		}
	}
	return retv
}

// GetNodesWithTitle retrieves nodes from the graph based on a given title.
func (t *Graph) GetNodesWithTitle(title string) []*Node {
	retv := make([]*Node, 0)
	for _, n := range t.Nodes {
		if n.Title == title {
			retv = append(retv, n)
		}
	}
	return retv
}

// AddNode appends a node to the graph and indexes it.
func (t *Graph) AddNode(n *Node) {
	n.Order = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	if t.nodesByID == nil {
		t.nodesByID = make(map[string]*Node)
	}
	t.nodesByID[n.ID] = n
}

// Clone produces a deep copy of the graph. Injection is a pure transform: the
// input graph must remain usable if an injection pass fails partway, so every
// mutating stage works on a clone and returns it.
func (t *Graph) Clone() *Graph {
	ng := &Graph{
		Nodes: make([]*Node, len(t.Nodes)),
		Links: make([]*Link, len(t.Links)),
	}
	for i, n := range t.Nodes {
		ng.Nodes[i] = n.clone()
	}
	for i, l := range t.Links {
		nl := *l
		ng.Links[i] = &nl
	}
	if t.extras != nil {
		ng.extras = make(map[string]json.RawMessage, len(t.extras))
		for k, v := range t.extras {
			ng.extras[k] = v
		}
	}
	ng.reindex()
	return ng
}

// GraphToJSON serializes the graph back to its editor-shape JSON form.
func (t *Graph) GraphToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
