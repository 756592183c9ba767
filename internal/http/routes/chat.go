package routes

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/coachengine/internal/conversation"
	"github.com/briangreenhill/coachengine/internal/domain"
	appmw "github.com/briangreenhill/coachengine/internal/http/middleware"
)

// userLocks serialises conversation turns per user across requests and
// connections.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		if ul.refs--; ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (s *Server) process(ctx context.Context, userID string, in conversation.Input) (conversation.Reply, error) {
	unlock := s.locks.lock(userID)
	defer unlock()
	reply, err := s.chat.Process(ctx, userID, in)
	if err == nil && reply.Plan != nil {
		s.contexts.Invalidate(userID)
	}
	return reply, err
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var in conversation.Input
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	reply, err := s.process(r.Context(), appmw.UserID(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.chat.Conversation(r.Context(), appmw.UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsOutbound frames: "message" carries one coach message, "reply" closes a
// turn with its state and quick replies, "error" reports a rejected input.
type wsOutbound struct {
	Type         string                    `json:"type"`
	Text         string                    `json:"text,omitempty"`
	State        conversation.State        `json:"state,omitempty"`
	QuickReplies []conversation.QuickReply `json:"quick_replies,omitempty"`
	Plan         *domain.WorkoutPlan       `json:"plan,omitempty"`
	Persona      string                    `json:"persona,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := appmw.UserID(r.Context())
	log := hlog.FromRequest(r).With().Str("user_id", userID).Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	out := make(chan wsOutbound, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// unblocks the reader when writing fails
		defer conn.Close()
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-out:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug().Err(err).Msg("ws write failed")
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push := func(msg wsOutbound) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var in conversation.Input
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		reply, err := s.process(ctx, userID, in)
		if err != nil {
			push(wsOutbound{Type: "error", Error: err.Error()})
			continue
		}
		if !s.stream(ctx, reply, push) {
			<-writerDone
			return
		}
	}
}

// stream sends a reply's messages one at a time, waiting out each message's
// delay, then the closing frame.
func (s *Server) stream(ctx context.Context, reply conversation.Reply, push func(wsOutbound) bool) bool {
	for _, m := range reply.Messages {
		if m.DelayMS > 0 {
			t := time.NewTimer(time.Duration(m.DelayMS) * time.Millisecond)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return false
			}
		}
		if !push(wsOutbound{Type: "message", Text: m.Text}) {
			return false
		}
	}
	return push(wsOutbound{Type: "reply", State: reply.State, QuickReplies: reply.QuickReplies, Plan: reply.Plan, Persona: reply.Persona})
}
