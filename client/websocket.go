package client

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketCallback receives each raw message from the monitoring connection.
type WebSocketCallback interface {
	OnMessage(message string)
}

type webSocketConnection struct {
	WebSocketURL   string
	Conn           *websocket.Conn
	ConnectionDone chan bool
	IsConnected    bool
	MaxRetry       int
	RetryCount     int
	mu             sync.Mutex
	Callback       WebSocketCallback

	// exponential backoff configuration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Dialer    websocket.Dialer
}

// ConnectWithManager connects to the websocket under a connection manager
// that retries with exponential backoff. timeoutSeconds caps the wait for a
// successful connection; negative waits indefinitely.
func (w *webSocketConnection) ConnectWithManager(timeoutSeconds int) error {
	connected := make(chan bool, 1)
	// connection attempts are serialized through this channel
	attemptConnect := make(chan bool, 1)
	attemptConnect <- true

	go func() {
		retries := 0
		for {
			select {
			case <-attemptConnect:
				err := w.connect()
				if err != nil {
					slog.Error("Connection attempt failed: ", "error", err)
					w.IsConnected = false

					retries++
					if retries > w.MaxRetry {
						slog.Error(fmt.Sprintf("Maximum number of retries reached (%d)", w.MaxRetry))
						close(connected)
						return
					}

					time.AfterFunc(w.getReconnectDelay(), func() {
						attemptConnect <- true
					})
				} else {
					w.IsConnected = true
					close(connected)
					w.handleMessages()
					return
				}
			case <-w.ConnectionDone:
				return
			}
		}
	}()

	if timeoutSeconds > 0 {
		timeout := time.Duration(timeoutSeconds) * time.Second
		select {
		case <-connected:
			return nil
		case <-time.After(timeout):
			return fmt.Errorf("connection timeout after %v", timeout)
		}
	} else if timeoutSeconds < 0 {
		<-connected
	}

	return nil
}

func (w *webSocketConnection) connect() error {
	conn, _, err := w.Dialer.Dial(w.WebSocketURL, nil)
	if err != nil {
		return err
	}

	w.Conn = conn
	return nil
}

func (w *webSocketConnection) Ping() error {
	return w.Conn.WriteMessage(websocket.PingMessage, nil)
}

func (w *webSocketConnection) handleMessages() {
	defer func() {
		w.Conn.Close()
		w.ConnectionDone <- true
	}()
	for {
		_, message, err := w.Conn.ReadMessage()
		if err != nil {
			slog.Warn(fmt.Sprintf("Read error: %v", err))
			break
		}
		if w.Callback != nil {
			w.Callback.OnMessage(string(message))
		}
	}
}

// getReconnectDelay calculates BaseDelay * 2^RetryCount, capped at MaxDelay.
func (w *webSocketConnection) getReconnectDelay() time.Duration {
	delay := w.BaseDelay * time.Duration(math.Pow(2, float64(w.RetryCount)))
	if delay > w.MaxDelay {
		delay = w.MaxDelay
	}
	w.RetryCount++
	return delay
}

func (w *webSocketConnection) LockRead() {
	w.mu.Lock()
}

func (w *webSocketConnection) UnlockRead() {
	w.mu.Unlock()
}
