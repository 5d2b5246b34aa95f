package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports"
)

// Mask replaces every masked value.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of JSON fields whose
// names match the patterns, at any depth of any slice. Masking is one-way:
// loaded snapshots keep the mask.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Clone so the caller's snapshot stays intact.
	masked := snap.Clone()
	for key, raw := range masked.Slices {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("failed to decode slice %q for masking: %w", key, err)
		}
		value = maskValue(value, m.patterns)
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode masked slice %q: %w", key, err)
		}
		masked.Slices[key] = data
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func maskValue(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			if matchesAny(k, patterns) {
				t[k] = Mask
				continue
			}
			t[k] = maskValue(sub, patterns)
		}
		return t
	case []any:
		for i, sub := range t {
			t[i] = maskValue(sub, patterns)
		}
		return t
	default:
		return v
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
