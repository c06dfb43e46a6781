package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ScriptBridge runs scripts inside the 3D content tool over its local
// scripting socket. Each call is one request/response exchange: a JSON line
// out, a JSON line back. The task-lifecycle layer wraps calls to it exactly
// like job-queue calls.
type ScriptBridge struct {
	addr        string
	dialTimeout time.Duration
}

// ScriptResult is the tool's reply to a script execution.
type ScriptResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

// NewScriptBridge creates a bridge to the scripting socket at addr
// (host:port on the local machine).
func NewScriptBridge(addr string) *ScriptBridge {
	return &ScriptBridge{
		addr:        addr,
		dialTimeout: 5 * time.Second,
	}
}

// RunScript sends the script text and waits for the tool's reply. The
// connection is scoped to the call; ctx cancels both the dial and the wait.
func (b *ScriptBridge) RunScript(ctx context.Context, script string) (*ScriptResult, error) {
	d := net.Dialer{Timeout: b.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to scripting bridge: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	// release the blocked read if the caller goes away
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	request, err := json.Marshal(map[string]string{"script": script})
	if err != nil {
		return nil, err
	}
	request = append(request, '\n')
	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("sending script: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading bridge reply: %w", err)
	}

	retv := &ScriptResult{}
	if err := json.Unmarshal(line, retv); err != nil {
		return nil, fmt.Errorf("parsing bridge reply: %w", err)
	}
	return retv, nil
}
