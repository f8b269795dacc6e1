// Package observer streams committed rounds to spectator clients over
// websockets. Observers are read-only: they see MATCH_INFO once on connect,
// the backlog of rounds already played, then every new round as it commits.
package observer

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"robowar.ai/internal/protocol"
)

const writeTimeout = 5 * time.Second

type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	info    *protocol.MatchInfoMsg
	history [][]byte
	clients map[uint64]chan []byte
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[uint64]chan []byte{},
	}
}

// SetMatchInfo installs the header sent to every observer on connect. Also
// resets the round backlog; the host calls it once per match.
func (s *Server) SetMatchInfo(info protocol.MatchInfoMsg) {
	info.Type = protocol.TypeMatchInfo
	s.mu.Lock()
	s.info = &info
	s.history = nil
	s.mu.Unlock()
}

// BroadcastRound fans one committed round out to every connected observer
// and appends it to the backlog for late joiners.
func (s *Server) BroadcastRound(msg protocol.RoundMsg) {
	msg.Type = protocol.TypeRound
	s.broadcast(msg)
}

// BroadcastEnd announces the match result.
func (s *Server) BroadcastEnd(msg protocol.MatchEndMsg) {
	msg.Type = protocol.TypeMatchEnd
	s.broadcast(msg)
}

func (s *Server) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("observer marshal failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.history = append(s.history, b)
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			// Slow observer: drop it rather than stall the match.
			close(ch)
			delete(s.clients, id)
			s.log.Warn("dropping slow observer", zap.Uint64("observer", id))
		}
	}
	s.mu.Unlock()
}

// Handler upgrades an observer connection and streams the match to it.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id := s.nextID.Add(1)
		out := make(chan []byte, 256)

		s.mu.Lock()
		var backlog [][]byte
		if s.info != nil {
			b, _ := json.Marshal(s.info)
			backlog = append(backlog, b)
		}
		backlog = append(backlog, s.history...)
		s.clients[id] = out
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			if ch, ok := s.clients[id]; ok {
				close(ch)
				delete(s.clients, id)
			}
			s.mu.Unlock()
		}()

		s.log.Info("observer connected",
			zap.Uint64("observer", id), zap.String("remote", r.RemoteAddr))

		// Reader goroutine: observers send nothing, but we must service
		// control frames and notice disconnects.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for _, b := range backlog {
			if err := writeFrame(conn, b); err != nil {
				return
			}
		}
		for {
			select {
			case <-done:
				return
			case b, ok := <-out:
				if !ok {
					return
				}
				if err := writeFrame(conn, b); err != nil {
					return
				}
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Close disconnects every observer.
func (s *Server) Close() {
	s.mu.Lock()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.mu.Unlock()
}
