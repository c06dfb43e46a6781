package client

import "github.com/lumenforge/comfystage/graphapi"

// QueueItem tracks one submitted job until the backend reports it finished.
// Events arrive on the Events channel in the order the backend emits them;
// the channel is not closed, a "finished", "interrupted" or "error" event is
// the last one sent.
type QueueItem struct {
	PromptID   string                 `json:"prompt_id"`
	Number     int                    `json:"number"`
	NodeErrors map[string]interface{} `json:"node_errors"`
	Events     chan JobEvent          `json:"-"`
	Workflow   *graphapi.Graph        `json:"-"`
	Error      struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}
