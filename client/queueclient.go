package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lumenforge/comfystage/graphapi"
)

// QueueCallbacks let the embedding application observe queue activity without
// polling. All callbacks are optional.
type QueueCallbacks struct {
	QueueCountChanged func(*QueueClient, int)
	ItemStarted       func(*QueueClient, *QueueItem)
	ItemFinished      func(*QueueClient, *QueueItem)
}

// QueueClient talks to the generation backend's job queue: it submits
// workflow graphs, polls for completion, streams progress over a websocket
// and fetches finished outputs. The task-lifecycle layer treats all of these
// as plain async functions; there is no special-case handling above it.
type QueueClient struct {
	serverBaseAddress string
	clientid          string
	queueditems       map[string]*QueueItem
	queuecount        int
	callbacks         *QueueCallbacks
	httpclient        *http.Client
	webSocket         *webSocketConnection
}

// NewQueueClient creates a client for the backend at the given address.
func NewQueueClient(serverAddress string, serverPort int, callbacks *QueueCallbacks) *QueueClient {
	sbaseaddr := serverAddress + ":" + strconv.Itoa(serverPort)
	return &QueueClient{
		serverBaseAddress: sbaseaddr,
		clientid:          uuid.New().String(),
		queueditems:       make(map[string]*QueueItem),
		callbacks:         callbacks,
		httpclient:        &http.Client{},
	}
}

// ClientID returns the unique client id for this connection to the backend.
func (c *QueueClient) ClientID() string {
	return c.clientid
}

// Connect opens the websocket monitoring connection. timeoutSeconds caps the
// wait; negative waits indefinitely.
func (c *QueueClient) Connect(timeoutSeconds int) error {
	if c.webSocket != nil && c.webSocket.IsConnected {
		return nil
	}
	c.webSocket = &webSocketConnection{
		WebSocketURL:   fmt.Sprintf("ws://%s/ws?clientId=%s", c.serverBaseAddress, c.clientid),
		ConnectionDone: make(chan bool),
		MaxRetry:       5,
		BaseDelay:      1 * time.Second,
		MaxDelay:       30 * time.Second,
		Callback:       c,
		Dialer:         websocket.Dialer{},
	}
	return c.webSocket.ConnectWithManager(timeoutSeconds)
}

// Submit flattens the graph into a prompt and enqueues it. The returned
// QueueItem carries the event channel the websocket monitor feeds.
func (c *QueueClient) Submit(ctx context.Context, graph *graphapi.Graph) (*QueueItem, error) {
	prompt := graph.GraphToPrompt(c.clientid)

	// prevent a race where the ws may deliver messages about a queued item
	// before we add the item to our internal map
	if c.webSocket != nil {
		c.webSocket.LockRead()
		defer c.webSocket.UnlockRead()
	}

	data, err := json.Marshal(prompt)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/prompt", data)
	if err != nil {
		return nil, err
	}

	item := &QueueItem{
		Workflow: graph,
		Events:   make(chan JobEvent, 16),
	}
	if err := json.Unmarshal(body, item); err != nil || item.PromptID == "" {
		perror := &promptErrorMessage{}
		if perr := json.Unmarshal(body, perror); perr == nil && perror.Error.Message != "" {
			return nil, errors.New(perror.Error.Message)
		}
		slog.Error("unexpected response to prompt submission", "body", string(body))
		return nil, errors.New("prompt submission rejected")
	}
	c.queueditems[item.PromptID] = item
	return item, nil
}

type promptErrorMessage struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	NodeErrors []interface{} `json:"node_errors"`
}

// PollStatus is the snapshot Poll returns for a submitted job.
type PollStatus struct {
	Completed bool
	Outputs   map[string][]OutputDescriptor
}

// Poll asks the backend's history for the job. A history entry exists once
// the job has finished executing.
func (c *QueueClient) Poll(ctx context.Context, promptID string) (*PollStatus, error) {
	body, err := c.get(ctx, "/history/"+promptID)
	if err != nil {
		return nil, err
	}

	type historyOutputs struct {
		Outputs map[string]json.RawMessage `json:"outputs"`
	}
	history := make(map[string]historyOutputs)
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, err
	}

	entry, ok := history[promptID]
	if !ok {
		return &PollStatus{Completed: false}, nil
	}

	retv := &PollStatus{
		Completed: true,
		Outputs:   make(map[string][]OutputDescriptor),
	}
	for nodeID, raw := range entry.Outputs {
		var inner struct {
			Images []OutputDescriptor `json:"images"`
		}
		if err := json.Unmarshal(raw, &inner); err == nil && len(inner.Images) > 0 {
			retv.Outputs[nodeID] = inner.Images
		}
	}
	return retv, nil
}

// FetchOutput downloads the bytes of one finished output file.
func (c *QueueClient) FetchOutput(ctx context.Context, desc OutputDescriptor) ([]byte, error) {
	params := url.Values{}
	params.Add("filename", desc.Filename)
	params.Add("subfolder", desc.Subfolder)
	params.Add("type", desc.Type)
	return c.get(ctx, "/view?"+params.Encode())
}

// Interrupt asks the backend to stop the currently executing job.
func (c *QueueClient) Interrupt(ctx context.Context) error {
	_, err := c.post(ctx, "/interrupt", []byte("{}"))
	return err
}

// QueueCount returns the backend's queue length as of the last status message.
func (c *QueueClient) QueueCount() int {
	if c.webSocket == nil {
		return 0
	}
	c.webSocket.LockRead()
	defer c.webSocket.UnlockRead()
	return c.queuecount
}

// itemFor looks up a queued item under the same lock Submit registers it
// with, so the ws reader never observes the map mid-write.
func (c *QueueClient) itemFor(promptID string) *QueueItem {
	c.webSocket.LockRead()
	defer c.webSocket.UnlockRead()
	return c.queueditems[promptID]
}

// takeItem removes and returns a queued item; terminal events deregister the
// item before it is notified.
func (c *QueueClient) takeItem(promptID string) *QueueItem {
	c.webSocket.LockRead()
	defer c.webSocket.UnlockRead()
	qi := c.queueditems[promptID]
	delete(c.queueditems, promptID)
	return qi
}

func (c *QueueClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s%s", c.serverBaseAddress, path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *QueueClient) post(ctx context.Context, path string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("http://%s%s", c.serverBaseAddress, path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// OnMessage translates each websocket message into JobEvents on the matching
// QueueItem's channel.
func (c *QueueClient) OnMessage(msg string) {
	message := &wsMessage{}
	if err := json.Unmarshal([]byte(msg), &message); err != nil {
		slog.Error("deserializing status message", "error", err)
		return
	}

	switch message.Type {
	case "status":
		s := message.Data.(*wsDataStatus)
		c.webSocket.LockRead()
		c.queuecount = s.Status.ExecInfo.QueueRemaining
		count := c.queuecount
		c.webSocket.UnlockRead()
		if c.callbacks != nil && c.callbacks.QueueCountChanged != nil {
			c.callbacks.QueueCountChanged(c, count)
		}
	case "execution_start":
		s := message.Data.(*wsDataExecutionStart)
		if qi := c.itemFor(s.PromptID); qi != nil {
			if c.callbacks != nil && c.callbacks.ItemStarted != nil {
				c.callbacks.ItemStarted(c, qi)
			}
			qi.Events <- JobEvent{Type: EventStarted, PromptID: s.PromptID}
		}
	case "executing":
		s := message.Data.(*wsDataExecuting)
		if s.Node == nil {
			// final node was processed; no further events follow
			qi := c.takeItem(s.PromptID)
			if qi == nil {
				return
			}
			if c.callbacks != nil && c.callbacks.ItemFinished != nil {
				c.callbacks.ItemFinished(c, qi)
			}
			qi.Events <- JobEvent{Type: EventFinished, PromptID: s.PromptID}
		} else if qi := c.itemFor(s.PromptID); qi != nil {
			qi.Events <- JobEvent{Type: EventExecuting, PromptID: s.PromptID, NodeID: *s.Node}
		}
	case "progress":
		s := message.Data.(*wsDataProgress)
		if qi := c.itemFor(s.PromptID); qi != nil {
			qi.Events <- JobEvent{Type: EventProgress, PromptID: s.PromptID, Value: s.Value, Max: s.Max}
		}
	case "executed":
		s := message.Data.(*wsDataExecuted)
		if qi := c.itemFor(s.PromptID); qi != nil {
			qi.Events <- JobEvent{Type: EventData, PromptID: s.PromptID, NodeID: s.Node, Outputs: s.outputs()}
		}
	case "execution_interrupted":
		s := message.Data.(*wsDataInterrupted)
		if qi := c.takeItem(s.PromptID); qi != nil {
			if c.callbacks != nil && c.callbacks.ItemFinished != nil {
				c.callbacks.ItemFinished(c, qi)
			}
			qi.Events <- JobEvent{Type: EventInterrupted, PromptID: s.PromptID, NodeID: s.Node}
		}
	case "execution_error":
		s := message.Data.(*wsDataError)
		if qi := c.takeItem(s.PromptID); qi != nil {
			if c.callbacks != nil && c.callbacks.ItemFinished != nil {
				c.callbacks.ItemFinished(c, qi)
			}
			qi.Events <- JobEvent{
				Type:     EventError,
				PromptID: s.PromptID,
				NodeID:   s.Node,
				Error: &JobError{
					NodeID:           s.Node,
					NodeType:         s.NodeType,
					ExceptionMessage: s.ExceptionMessage,
					ExceptionType:    s.ExceptionType,
					Traceback:        s.Traceback,
				},
			}
		}
	case "crystools.monitor":
	default:
		slog.Warn("Unhandled message type: ", "type", message.Type)
	}
}
