package graphapi

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
)

// Normalize turns raw workflow JSON into a Graph, accepting either the editor
// shape (object with "nodes" and "links") or the flat API shape (object whose
// keys are numeric node ids mapping to {class_type, inputs}). An unrecognized
// shape degrades to an empty graph rather than failing the submission; the
// caller detects "nothing was injected" from the graph content.
//
// Detection order: the editor markers win when both are present, then the
// all-digit-keys check, then unknown.
func Normalize(data []byte) *Graph {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("workflow is not a JSON object, using empty graph", "error", err)
		return NewGraph()
	}

	_, hasNodes := raw["nodes"]
	_, hasLinks := raw["links"]
	if hasNodes && hasLinks {
		g := &Graph{}
		if err := json.Unmarshal(data, g); err != nil {
			slog.Warn("editor-shape workflow failed to parse, using empty graph", "error", err)
			return NewGraph()
		}
		return g
	}

	if len(raw) > 0 && allDigitKeys(raw) {
		return normalizeFlat(raw)
	}

	slog.Warn("unrecognized workflow shape, using empty graph")
	return NewGraph()
}

func allDigitKeys(raw map[string]json.RawMessage) bool {
	for k := range raw {
		if k == "" {
			return false
		}
		for _, r := range k {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// flatNode is the API-shape form of one node.
type flatNode struct {
	ClassType string                     `json:"class_type"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
	Meta      struct {
		Title string `json:"title"`
	} `json:"_meta"`
}

// normalizeFlat converts the flat shape into the internal graph form. Scalar
// inputs become the node's named inputs; [origin_id, origin_slot] pairs become
// links. Nodes are ordered by numeric id so classification tie-breaking is
// deterministic.
func normalizeFlat(raw map[string]json.RawMessage) *Graph {
	ids := make([]string, 0, len(raw))
	for k := range raw {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	g := NewGraph()
	linkID := 0
	for _, id := range ids {
		var fn flatNode
		if err := json.Unmarshal(raw[id], &fn); err != nil || fn.ClassType == "" {
			slog.Warn("skipping malformed flat node", "id", id)
			continue
		}

		n := &Node{
			ID:          id,
			Type:        fn.ClassType,
			Title:       fn.Meta.Title,
			NamedInputs: make(map[string]interface{}),
		}

		names := make([]string, 0, len(fn.Inputs))
		for name := range fn.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		n.InputNames = names

		for slot, name := range names {
			var pair []interface{}
			if err := json.Unmarshal(fn.Inputs[name], &pair); err == nil && len(pair) == 2 {
				// connection to another node's output
				linkID++
				g.Links = append(g.Links, &Link{
					ID:         linkID,
					OriginID:   asIDString(pair[0]),
					OriginSlot: asInt(pair[1]),
					TargetID:   id,
					TargetSlot: slot,
				})
				continue
			}
			var v interface{}
			if err := json.Unmarshal(fn.Inputs[name], &v); err != nil {
				continue
			}
			n.NamedInputs[name] = v
		}
		g.AddNode(n)
	}
	return g
}
