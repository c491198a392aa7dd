package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fieldline/engine/internal/session"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/log"
	"github.com/fieldline/engine/pkg/run"
)

type (
	// Client represents a WebSocket connection driving one or more runs.
	// Start messages open sessions; patch messages merge answer changes
	// and stream the re-derived view back
	Client struct {
		server *Server
		conn   *websocket.Conn
		runID  api.RunID
	}

	// RunViewPayload is the data carried by a view event
	RunViewPayload struct {
		WorkflowID api.WorkflowID `json:"workflowId"`
		Data       api.DataMap    `json:"data"`
		View       *run.View      `json:"view"`
		Validation api.Validation `json:"validation"`
	}
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var ErrUnknownRunMessage = errors.New("unknown run message type")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed",
			log.Error(err))
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
	}
	s.registerWebSocket(client)
	go client.run()
}

// Close tears down the connection, unblocking the client's read loop
func (c *Client) Close() {
	_ = c.conn.Close()
}

func (c *Client) run() {
	defer func() {
		c.server.unregisterWebSocket(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming, done)

	for {
		select {
		case message, ok := <-incoming:
			if !ok {
				return
			}
			if !c.handleMessage(message) {
				return
			}

		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

// readMessages pumps inbound frames to the run loop. The handoff watches
// done so the pump exits even when the run loop stops with the buffer full
func (c *Client) readMessages(incoming chan []byte, done <-chan struct{}) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			close(incoming)
			return
		}
		select {
		case incoming <- message:
		case <-done:
			return
		}
	}
}

func (c *Client) handleMessage(message []byte) bool {
	var req api.RunRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return c.sendError(c.runID,
			fmt.Sprintf("%s: %v", ErrInvalidJSON, err))
	}

	switch req.Type {
	case api.RunMessageStart:
		return c.handleStart(&req)
	case api.RunMessagePatch:
		return c.handlePatch(&req)
	default:
		return c.sendError(req.RunID,
			fmt.Sprintf("%s: %s", ErrUnknownRunMessage, req.Type))
	}
}

func (c *Client) handleStart(req *api.RunRequest) bool {
	wf, err := c.server.store.Get(context.Background(), req.WorkflowID)
	if err != nil {
		return c.sendError("", err.Error())
	}

	sess, err := c.server.sessions.StartRun(wf, req.Data)
	if err != nil {
		return c.sendError("", err.Error())
	}

	// Later patches may omit the run ID and target the last started run
	c.runID = sess.RunID
	return c.sendView(sess)
}

func (c *Client) handlePatch(req *api.RunRequest) bool {
	runID := req.RunID
	if runID == "" {
		runID = c.runID
	}

	sess, err := c.server.sessions.PatchRun(runID, req.Data)
	if err != nil {
		return c.sendError(runID, err.Error())
	}
	return c.sendView(sess)
}

func (c *Client) sendView(sess *session.Session) bool {
	payload, err := json.Marshal(&RunViewPayload{
		WorkflowID: sess.WorkflowID,
		Data:       sess.Data,
		View:       sess.View,
		Validation: sess.View.Validate(sess.Data),
	})
	if err != nil {
		c.server.logger.Error("Failed to marshal run view",
			log.RunID(sess.RunID), log.Error(err))
		return false
	}

	return c.send(&api.RunEvent{
		Type:     api.RunMessageView,
		RunID:    sess.RunID,
		Sequence: sess.Sequence,
		Data:     payload,
	})
}

func (c *Client) sendError(runID api.RunID, msg string) bool {
	payload, err := json.Marshal(api.ErrorResponse{Error: msg})
	if err != nil {
		return false
	}

	return c.send(&api.RunEvent{
		Type:  api.RunMessageError,
		RunID: runID,
		Data:  payload,
	})
}

func (c *Client) send(ev *api.RunEvent) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		c.server.logger.Error("WebSocket write failed",
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) sendPing() bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}
