package graphapi

import (
	"log/slog"
)

// Prompt is the payload enqueued to the backend's job queue.
type Prompt struct {
	ClientID  string                `json:"client_id"`
	Nodes     map[string]PromptNode `json:"prompt"`
	ExtraData PromptExtraData       `json:"extra_data"`
}

type PromptNode struct {
	// Inputs values are scalars, or [origin_node_id, origin_slot] pairs for
	// connections.
	Inputs    map[string]interface{} `json:"inputs"`
	ClassType string                 `json:"class_type"`
}

// PromptExtraData carries the original graph along with the submission so the
// backend embeds it in generated outputs, keeping them reproducible.
type PromptExtraData struct {
	PngInfo PromptWorkflow `json:"extra_pnginfo"`
}

type PromptWorkflow struct {
	Workflow *Graph `json:"workflow"`
}

// frontend-only widget, never part of the submit payload
const controlAfterGenerate = "control_after_generate"

// GraphToPrompt flattens the graph into the queue submission form. Editor
// nodes have their positional widget values named through the registered
// schema (or declared input names, best effort); flat-origin nodes already
// carry named inputs. Link inputs are emitted as [origin, slot] pairs.
func (t *Graph) GraphToPrompt(clientID string) Prompt {
	p := Prompt{
		ClientID: clientID,
		Nodes:    make(map[string]PromptNode, len(t.Nodes)),
	}

	// index links by id for editor-shape slot resolution, and by target for
	// flat-shape nodes
	linksByID := make(map[int]*Link, len(t.Links))
	linksByTarget := make(map[string][]*Link)
	for _, l := range t.Links {
		linksByID[l.ID] = l
		linksByTarget[l.TargetID] = append(linksByTarget[l.TargetID], l)
	}

	for _, n := range t.Nodes {
		pn := PromptNode{
			ClassType: n.Type,
			Inputs:    make(map[string]interface{}),
		}

		if n.NamedInputs != nil {
			for k, v := range n.NamedInputs {
				pn.Inputs[k] = v
			}
			for _, l := range linksByTarget[n.ID] {
				if name := inputNameForSlot(n, l.TargetSlot); name != "" {
					pn.Inputs[name] = []interface{}{l.OriginID, l.OriginSlot}
				}
			}
			p.Nodes[n.ID] = pn
			continue
		}

		names := SchemaFor(n.Type)
		usingInputNames := false
		if names == nil {
			// no registered schema; fall back to the node's declared input
			// names, best effort
			names = n.InputNames
			usingInputNames = true
		}
		dropped := 0
		for i, v := range n.WidgetValues {
			if i >= len(names) {
				dropped += len(n.WidgetValues) - i
				break
			}
			if names[i] == controlAfterGenerate {
				continue
			}
			if usingInputNames {
				if _, linked := n.InputLinks[i]; linked {
					// the slot carries a connection, the widget value has no home
					dropped++
					continue
				}
			}
			pn.Inputs[names[i]] = v
		}
		if dropped > 0 {
			slog.Warn("widget values could not be named for submission",
				"node", n.ID, "type", n.Type, "dropped", dropped)
		}

		for slot, linkID := range n.InputLinks {
			l := linksByID[linkID]
			if l == nil {
				continue
			}
			if name := inputNameForSlot(n, slot); name != "" {
				pn.Inputs[name] = []interface{}{l.OriginID, l.OriginSlot}
			}
		}

		p.Nodes[n.ID] = pn
	}

	p.ExtraData.PngInfo.Workflow = t
	return p
}

func inputNameForSlot(n *Node, slot int) string {
	if slot >= 0 && slot < len(n.InputNames) {
		return n.InputNames[slot]
	}
	return ""
}
