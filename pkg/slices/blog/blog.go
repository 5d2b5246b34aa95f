// Package blog holds the post list and the currently selected post.
// Posts come from a PostSource; the transport behind it is not this package's concern.
package blog

import (
	"context"
	"fmt"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
)

// Key is the slice's name in the state tree.
const Key = "blog"

// Action types handled by the blog slice.
const (
	ActionFetchSuccess domain.ActionType = "FETCH_POSTS_SUCCESS"
	ActionFetchFail    domain.ActionType = "FETCH_POSTS_FAIL"
	ActionSelectPost   domain.ActionType = "SELECT_POST"
	ActionPostLoaded   domain.ActionType = "POST_LOADED"
)

// Effect names.
const (
	EffectFetchPosts = "FETCH_POSTS"
	EffectLoadPost   = "LOAD_POST"
)

// PageSize is how many posts the list keeps.
const PageSize = 4

// DefaultAuthor overrides the author of every listed post.
const DefaultAuthor = "Adam"

// Post is a blog entry.
type Post struct {
	ID     int    `json:"id" yaml:"id" mapstructure:"id"`
	UserID int    `json:"userId,omitempty" yaml:"userId,omitempty" mapstructure:"userId"`
	Title  string `json:"title" yaml:"title" mapstructure:"title"`
	Body   string `json:"body,omitempty" yaml:"body,omitempty" mapstructure:"body"`
	Author string `json:"author,omitempty" yaml:"author,omitempty" mapstructure:"author"`
}

// PostSource fetches posts.
type PostSource interface {
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id int) (*Post, error)
}

// State of the blog slice. SelectedPostID is 0 when nothing is selected.
type State struct {
	Posts          []Post `json:"posts" yaml:"posts"`
	SelectedPostID int    `json:"selected_post_id,omitempty" yaml:"selected_post_id,omitempty"`
	LoadedPost     *Post  `json:"loaded_post,omitempty" yaml:"loaded_post,omitempty"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the last fetch failed.
func (s *State) Failed() bool {
	return s.Error != ""
}

type postsPayload struct {
	Posts []Post `mapstructure:"posts"`
}

type postPayload struct {
	Post Post `mapstructure:"post"`
}

type selectPayload struct {
	ID int `mapstructure:"id"`
}

type failPayload struct {
	Error string `mapstructure:"error"`
}

// FetchSuccess replaces the post list.
func FetchSuccess(posts []Post) domain.Action {
	return domain.NewAction(ActionFetchSuccess, "posts", posts)
}

// FetchFail records a failed fetch.
func FetchFail(err error) domain.Action {
	return domain.NewAction(ActionFetchFail, "error", err.Error())
}

// SelectPost marks id as selected.
func SelectPost(id int) domain.Action {
	return domain.NewAction(ActionSelectPost, "id", id)
}

// PostLoaded stores the full post.
func PostLoaded(p Post) domain.Action {
	return domain.NewAction(ActionPostLoaded, "post", p)
}

// FetchPosts loads the list from source, keeps the first PageSize posts and
// credits them to DefaultAuthor. A failure is dispatched as FETCH_POSTS_FAIL.
func FetchPosts(ctx context.Context, source PostSource) domain.Effect {
	return domain.NewEffect(EffectFetchPosts, func(dispatch domain.Dispatch, _ domain.GetState) error {
		posts, err := source.ListPosts(ctx)
		if err != nil {
			_, derr := dispatch(FetchFail(err))
			return derr
		}
		if len(posts) > PageSize {
			posts = posts[:PageSize]
		}
		updated := make([]Post, len(posts))
		for i, p := range posts {
			p.Author = DefaultAuthor
			updated[i] = p
		}
		_, err = dispatch(FetchSuccess(updated))
		return err
	})
}

// LoadPost selects id and fetches it unless it is already the loaded post.
func LoadPost(ctx context.Context, source PostSource, id int) domain.Effect {
	return domain.NewEffect(EffectLoadPost, func(dispatch domain.Dispatch, getState domain.GetState) error {
		if _, err := dispatch(SelectPost(id)); err != nil {
			return err
		}
		if s, ok := domain.SliceOf[State](getState(), Key); ok && s.LoadedPost != nil && s.LoadedPost.ID == id {
			return nil
		}
		post, err := source.GetPost(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load post %d: %w", id, err)
		}
		_, err = dispatch(PostLoaded(*post))
		return err
	})
}

// Reduce is the blog reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = &State{Posts: []Post{}}
	}

	switch action.Type {
	case ActionFetchSuccess:
		var p postsPayload
		if err := action.Decode(&p); err != nil {
			return state
		}
		next := *state
		next.Posts = append([]Post{}, p.Posts...)
		next.Error = ""
		return &next

	case ActionFetchFail:
		var p failPayload
		if err := action.Decode(&p); err != nil {
			return state
		}
		if p.Error == "" {
			p.Error = "fetch failed"
		}
		next := *state
		next.Error = p.Error
		return &next

	case ActionSelectPost:
		var p selectPayload
		if err := action.Decode(&p); err != nil || p.ID == state.SelectedPostID {
			return state
		}
		next := *state
		next.SelectedPostID = p.ID
		return &next

	case ActionPostLoaded:
		var p postPayload
		if err := action.Decode(&p); err != nil || p.Post.ID == 0 {
			return state
		}
		next := *state
		loaded := p.Post
		next.LoadedPost = &loaded
		return &next

	default:
		return state
	}
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
