package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/flux/pkg/domain"
)

// StreamManager fans state diffs out to SSE connections, per session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // session id -> set of channels
	watching    map[string]func()                   // session id -> store unsubscribe
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		watching:    make(map[string]func()),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Close ends every stream of sessionID and stops watching its store.
func (sm *StreamManager) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if unsubscribe, ok := sm.watching[sessionID]; ok {
		unsubscribe()
		delete(sm.watching, sessionID)
	}
	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

// watchOnce calls start unless sessionID is already watched.
func (sm *StreamManager) watchOnce(sessionID string, start func() func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.watching[sessionID]; ok {
		return
	}
	sm.watching[sessionID] = start()
}

// watch subscribes to the session's store so that every state change, including
// those made by deferred effects, is broadcast as a domain.StateDiff.
func (s *Server) watch(ctx context.Context, sessionID string) error {
	sess, err := s.Sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}

	s.Streams.watchOnce(sessionID, func() func() {
		var mu sync.Mutex
		last := sess.State()
		return sess.Store.Subscribe(func() {
			mu.Lock()
			curr := sess.State()
			diff := domain.Diff(last, curr)
			last = curr
			mu.Unlock()

			if diff.IsEmpty() {
				return
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: diff encode failed", "session_id", sessionID, "err", err)
				return
			}
			s.Streams.Broadcast(sessionID, string(data))
		})
	})
	return nil
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional watch query keeps only diffs touching the listed slice keys.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if err := s.watch(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				watchList = append(watchList, key)
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to session updates", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !touches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func touches(msg string, keys []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, key := range keys {
		if _, ok := diff.Changed[key]; ok {
			return true
		}
		for _, removed := range diff.Removed {
			if removed == key {
				return true
			}
		}
	}
	return false
}
