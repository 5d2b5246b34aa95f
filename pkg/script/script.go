package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/registry"
)

// ErrEmptyScript is returned when a document holds no steps.
var ErrEmptyScript = errors.New("script has no steps")

// Step is a single dispatch.
type Step struct {
	Type    domain.ActionType `yaml:"type" json:"type"`
	Payload domain.Payload    `yaml:"payload,omitempty" json:"payload,omitempty"`
	// Wait pauses the replay after the step, so deferred effects can land.
	Wait time.Duration `yaml:"wait,omitempty" json:"wait,omitempty"`
}

// Action returns the step as a plain action.
func (s Step) Action() domain.Action {
	return domain.Action{Type: s.Type, Payload: s.Payload}
}

// Script is an ordered list of steps.
type Script struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Dispatcher is the store surface a replay needs.
type Dispatcher interface {
	Dispatch(d domain.Dispatchable) (domain.Dispatchable, error)
}

// Parse decodes a script document. JSON input is read as YAML.
func Parse(data []byte) (*Script, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyScript
	}

	var s Script
	if data[0] == '[' || data[0] == '-' {
		if err := yaml.Unmarshal(data, &s.Steps); err != nil {
			return nil, fmt.Errorf("failed to parse script: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	for i, step := range s.Steps {
		if step.Type == "" {
			return nil, fmt.Errorf("step %d: missing type", i+1)
		}
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Replay dispatches every step in order and returns how many were dispatched.
// It stops at the first failing step or when ctx is cancelled.
func Replay(ctx context.Context, store Dispatcher, reg *registry.Registry, s *Script) (int, error) {
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		d, err := reg.Resolve(ctx, step.Action())
		if err != nil {
			return i, fmt.Errorf("step %d (%s): %w", i+1, step.Type, err)
		}
		if _, err := store.Dispatch(d); err != nil {
			return i, fmt.Errorf("step %d (%s): %w", i+1, step.Type, err)
		}

		if step.Wait > 0 {
			timer := time.NewTimer(step.Wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return i + 1, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return len(s.Steps), nil
}
