package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/session"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// wsMessage is one frame in either direction. Server to client: type
// "snapshot" or "error". Client to server: type "setpoint", "pause",
// "resume" or "reset" with the command fields inline.
type wsMessage struct {
	Type     string            `json:"type"`
	Tank     dynamo.Tank       `json:"tank,omitempty"`
	Variable dynamo.Variable   `json:"variable,omitempty"`
	Value    float64           `json:"value,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// handleStream upgrades to WebSocket and bridges the session's event
// stream and command queue. The connection owns the session: a read
// failure (client gone) closes the session, satisfying the
// transport-loss-is-close contract.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	log := s.log.WithFields(logrus.Fields{"session": id, "remote": conn.RemoteAddr().String()})
	log.Info("stream attached")

	events, cancel := sess.Subscribe()
	outbound := make(chan wsMessage, 16)
	readerDone := make(chan struct{})

	// Single writer goroutine; gorilla connections allow one concurrent
	// writer only.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	// Event pump: session snapshots and the terminal error, if any.
	go func() {
		for ev := range events {
			msg := wsMessage{Type: "snapshot", Snapshot: ev.Snapshot}
			if ev.Err != nil {
				msg = wsMessage{Type: "error", Error: ev.Err.Error()}
			}
			select {
			case outbound <- msg:
			case <-readerDone:
				return
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		cmd := session.Command{
			Type:     session.CommandType(msg.Type),
			Tank:     msg.Tank,
			Variable: msg.Variable,
			Value:    msg.Value,
		}
		if err := sess.Submit(cmd); err != nil {
			// Recoverable per-command failure: report to this client,
			// session continuity is unaffected.
			select {
			case outbound <- wsMessage{Type: "error", Error: err.Error()}:
			default:
			}
			if errors.Is(err, dynamo.ErrClosed) {
				break
			}
		}
	}

	close(readerDone)
	cancel()
	s.registry.Close(id)
	log.Info("stream detached, session closed")
}
