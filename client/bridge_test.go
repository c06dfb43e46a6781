package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// serveBridge runs a one-shot scripting endpoint on a loopback listener and
// returns its address.
func serveBridge(t *testing.T, handle func(request map[string]string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		request := map[string]string{}
		if err := json.Unmarshal(line, &request); err != nil {
			return
		}
		conn.Write(append([]byte(handle(request)), '\n'))
	}()
	return ln.Addr().String()
}

func TestRunScript(t *testing.T) {
	addr := serveBridge(t, func(request map[string]string) string {
		if request["script"] != "import c4d" {
			t.Errorf("unexpected script payload: %q", request["script"])
		}
		return `{"success": true, "output": "ok"}`
	})

	bridge := NewScriptBridge(addr)
	result, err := bridge.RunScript(context.Background(), "import c4d")
	if err != nil {
		t.Fatalf("RunScript failed: %v", err)
	}
	if !result.Success || result.Output != "ok" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunScriptToolFailure(t *testing.T) {
	addr := serveBridge(t, func(request map[string]string) string {
		return `{"success": false, "output": "Traceback: NameError"}`
	})

	bridge := NewScriptBridge(addr)
	result, err := bridge.RunScript(context.Background(), "boom(")
	if err != nil {
		t.Fatalf("a failed script is still a successful exchange: %v", err)
	}
	if result.Success {
		t.Error("expected success=false")
	}
	if result.Output != "Traceback: NameError" {
		t.Errorf("tool output lost: %q", result.Output)
	}
}

func TestRunScriptNoEndpoint(t *testing.T) {
	// nothing listening here
	bridge := NewScriptBridge("127.0.0.1:1")
	_, err := bridge.RunScript(context.Background(), "x")
	if err == nil {
		t.Fatal("expected a connection error")
	}
}

func TestRunScriptContextCancelsWait(t *testing.T) {
	// endpoint accepts but never replies
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadBytes('\n')
		time.Sleep(5 * time.Second) // hold the connection open without answering
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	bridge := NewScriptBridge(ln.Addr().String())
	start := time.Now()
	_, err = bridge.RunScript(ctx, "x")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation should interrupt the blocked read promptly")
	}
}
