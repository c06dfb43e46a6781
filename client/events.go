package client

import (
	"encoding/json"
)

// OutputDescriptor names one file produced by a finished job.
type OutputDescriptor struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// JobEvent is one typed progress notification for a queued job, translated
// from the backend's websocket messages.
type JobEvent struct {
	Type string

	PromptID string
	// node currently executing; empty when the final node has finished
	NodeID string
	// progress counters for "progress" events
	Value int
	Max   int
	// outputs delivered by "data" events
	Outputs map[string][]OutputDescriptor
	// populated for "error" events
	Error *JobError
}

const (
	EventStarted     = "started"
	EventExecuting   = "executing"
	EventProgress    = "progress"
	EventData        = "data"
	EventFinished    = "finished"
	EventInterrupted = "interrupted"
	EventError       = "error"
)

// JobError carries the failure details the backend reports for a node.
type JobError struct {
	NodeID           string
	NodeType         string
	ExceptionMessage string
	ExceptionType    string
	Traceback        []string
}

func (e *JobError) Error() string {
	return e.ExceptionType + ": " + e.ExceptionMessage
}

// wsMessage is the envelope of every websocket message from the backend.
type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"-"`
}

func (sm *wsMessage) UnmarshalJSON(b []byte) error {
	var temp struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	sm.Type = temp.Type

	switch sm.Type {
	case "status":
		sm.Data = &wsDataStatus{}
	case "execution_start":
		sm.Data = &wsDataExecutionStart{}
	case "executing":
		sm.Data = &wsDataExecuting{}
	case "progress":
		sm.Data = &wsDataProgress{}
	case "executed":
		sm.Data = &wsDataExecuted{}
	case "execution_interrupted":
		sm.Data = &wsDataInterrupted{}
	case "execution_error":
		sm.Data = &wsDataError{}
	default:
		sm.Data = nil
	}

	if sm.Data != nil {
		if err := json.Unmarshal(temp.Data, sm.Data); err != nil {
			return err
		}
	}

	return nil
}

type wsDataStatus struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
}

type wsDataExecutionStart struct {
	PromptID string `json:"prompt_id"`
}

type wsDataExecuting struct {
	// null once the final node has been processed
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

type wsDataProgress struct {
	Value    int    `json:"value"`
	Max      int    `json:"max"`
	PromptID string `json:"prompt_id"`
}

type wsDataExecuted struct {
	Node     string                     `json:"node"`
	Output   map[string]json.RawMessage `json:"output"`
	PromptID string                     `json:"prompt_id"`
}

// outputs returns the file outputs of an executed message, tolerating the
// non-file output forms some nodes emit.
func (d *wsDataExecuted) outputs() map[string][]OutputDescriptor {
	retv := make(map[string][]OutputDescriptor)
	for k, raw := range d.Output {
		var descs []OutputDescriptor
		if err := json.Unmarshal(raw, &descs); err != nil {
			continue
		}
		files := descs[:0]
		for _, desc := range descs {
			if desc.Filename != "" {
				files = append(files, desc)
			}
		}
		if len(files) > 0 {
			retv[k] = files
		}
	}
	return retv
}

type wsDataInterrupted struct {
	PromptID string   `json:"prompt_id"`
	Node     string   `json:"node_id"`
	NodeType string   `json:"node_type"`
	Executed []string `json:"executed"`
}

type wsDataError struct {
	PromptID         string   `json:"prompt_id"`
	Node             string   `json:"node_id"`
	NodeType         string   `json:"node_type"`
	ExceptionMessage string   `json:"exception_message"`
	ExceptionType    string   `json:"exception_type"`
	Traceback        []string `json:"traceback"`
}
