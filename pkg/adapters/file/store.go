package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/flux/pkg/domain"
)

// Format selects how snapshots are encoded on disk.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a config string to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown snapshot format %q", s)
	}
}

const tmpPrefix = ".tmp-"

// Store implements ports.SnapshotStore using the local filesystem,
// one file per session.
type Store struct {
	BasePath string
	Format   Format
}

// Option configures the Store.
type Option func(*Store)

// WithFormat sets the on-disk encoding.
func WithFormat(f Format) Option {
	return func(s *Store) {
		s.Format = f
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".flux/sessions".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".flux", "sessions")
	}
	s := &Store{BasePath: basePath, Format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	if s.Format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionID cannot be empty")
	}
	// Dot names are reserved for temp files.
	if strings.ContainsAny(sessionID, `/\`) || strings.HasPrefix(sessionID, ".") {
		return "", fmt.Errorf("invalid sessionID %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+s.ext()), nil
}

// Save writes the snapshot atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	destPath, err := s.path(sessionID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := s.encode(snap)
	if err != nil {
		return err
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, tmpPrefix+sessionID+"-*"+s.ext())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace session file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move session file into place: %w", err)
	}
	return nil
}

// Load reads the snapshot of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	filePath, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return s.decode(data)
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	filePath, err := s.path(sessionID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the stored session IDs in the store's format, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != s.ext() || strings.HasPrefix(name, ".") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, s.ext()))
	}
	sort.Strings(sessions)
	return sessions, nil
}

// yamlSnapshot is the YAML document layout. Slices are decoded into plain
// values so the file reads naturally; Keys keeps their order.
type yamlSnapshot struct {
	SessionID string         `yaml:"session_id"`
	Keys      []string       `yaml:"keys"`
	UpdatedAt time.Time      `yaml:"updated_at"`
	Slices    map[string]any `yaml:"slices"`
}

func (s *Store) encode(snap *domain.Snapshot) ([]byte, error) {
	if s.Format != FormatYAML {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return data, nil
	}

	doc := yamlSnapshot{
		SessionID: snap.SessionID,
		Keys:      snap.Keys,
		UpdatedAt: snap.UpdatedAt,
		Slices:    make(map[string]any, len(snap.Slices)),
	}
	for key, raw := range snap.Slices {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode slice %q: %w", key, err)
		}
		doc.Slices[key] = v
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) decode(data []byte) (*domain.Snapshot, error) {
	if s.Format != FormatYAML {
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
		}
		return &snap, nil
	}

	var doc yamlSnapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	snap := &domain.Snapshot{
		SessionID: doc.SessionID,
		Keys:      doc.Keys,
		UpdatedAt: doc.UpdatedAt,
		Slices:    make(map[string]json.RawMessage, len(doc.Slices)),
	}
	for key, v := range doc.Slices {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode slice %q: %w", key, err)
		}
		snap.Slices[key] = raw
	}
	return snap, nil
}
