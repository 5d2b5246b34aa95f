package blog

import (
	"context"
	"fmt"
	"sync"
)

// StaticSource serves a fixed set of posts from memory.
type StaticSource struct {
	mu    sync.RWMutex
	posts []Post
	calls int
}

// NewStaticSource creates a source over posts.
func NewStaticSource(posts ...Post) *StaticSource {
	return &StaticSource{posts: append([]Post(nil), posts...)}
}

// ListPosts implements PostSource.
func (s *StaticSource) ListPosts(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]Post(nil), s.posts...), nil
}

// GetPost implements PostSource.
func (s *StaticSource) GetPost(ctx context.Context, id int) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, p := range s.posts {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, fmt.Errorf("post %d not found", id)
}

// Calls returns how many requests were served.
func (s *StaticSource) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}
