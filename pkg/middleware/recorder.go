package middleware

import (
	"sync"
	"time"

	"github.com/aretw0/flux/pkg/domain"
)

// Entry is one recorded action.
type Entry struct {
	Seq    int           `json:"seq" yaml:"seq"`
	Action domain.Action `json:"action" yaml:"action"`
	At     time.Time     `json:"at" yaml:"at"`
}

// Recorder keeps the ordered history of plain actions that reached the reducers.
// Effects are not recorded, the actions they dispatch are.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	entries []Entry
	seq     int
	limit   int
}

// NewRecorder creates a recorder keeping at most limit entries (0 = unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Middleware records every plain action that next accepted.
func (r *Recorder) Middleware() domain.Middleware {
	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				out, err := next(d)
				if err != nil {
					return out, err
				}
				if action, ok := asAction(d); ok {
					r.record(action)
				}
				return out, err
			}
		}
	}
}

func (r *Recorder) record(action domain.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.entries = append(r.entries, Entry{Seq: r.seq, Action: action, At: time.Now().UTC()})
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = append([]Entry(nil), r.entries[len(r.entries)-r.limit:]...)
	}
}

// History returns a copy of the recorded entries, oldest first.
func (r *Recorder) History() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Actions returns the recorded actions, oldest first.
func (r *Recorder) Actions() []domain.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Action, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset clears the history. Sequence numbers keep growing.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
