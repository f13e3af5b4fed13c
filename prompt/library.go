package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/store"
)

// Version identifies the current content of a prompt file.
type Version struct {
	Name     string    `json:"name"`
	Hash     string    `json:"hash"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLibraryObserver overrides the default SlogObserver.
func WithLibraryObserver(o observability.Observer) LibraryOption {
	return func(l *Library) { l.observer = o }
}

// Library serves prompt files through a read-through cache. Every read
// re-indexes the directory so edits on disk are picked up without restart.
type Library struct {
	cache      *store.Cache
	systemFile string
	observer   observability.Observer
}

// NewLibrary creates a Library over files. systemFile names the system
// prompt key.
func NewLibrary(files store.Store, systemFile string, opts ...LibraryOption) *Library {
	l := &Library{
		cache:      store.NewCache(files),
		systemFile: systemFile,
		observer:   observability.NewSlogObserver(slog.Default()),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Reload re-indexes the prompt directory.
func (l *Library) Reload(ctx context.Context) error {
	return l.cache.Refresh(ctx)
}

// List returns metadata for every prompt file, sorted by name.
func (l *Library) List(ctx context.Context) ([]store.Info, error) {
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l.cache.Keys(""), nil
}

// Content returns the text of the named prompt file.
func (l *Library) Content(ctx context.Context, name string) (string, error) {
	data, _, err := l.read(ctx, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Version returns the short content hash and file metadata of name.
func (l *Library) Version(ctx context.Context, name string) (Version, error) {
	data, info, err := l.read(ctx, name)
	if err != nil {
		return Version{}, err
	}

	sum := sha256.Sum256(data)
	return Version{
		Name:     name,
		Hash:     hex.EncodeToString(sum[:])[:12],
		Size:     info.Size,
		Modified: info.Modified,
	}, nil
}

// System returns the system prompt. A missing file yields an empty string
// and a warning event.
func (l *Library) System(ctx context.Context) string {
	text, err := l.Content(ctx, l.systemFile)
	if err != nil {
		l.observer.OnEvent(ctx, observability.NewEvent(EventSystemMissing, observability.LevelWarning, "prompt.Library",
			map[string]any{"file": l.systemFile, "error": err}))
		return ""
	}
	return strings.TrimSpace(text)
}

func (l *Library) read(ctx context.Context, name string) ([]byte, store.Info, error) {
	if err := store.ValidateKey(name); err != nil {
		return nil, store.Info{}, err
	}
	if err := l.Reload(ctx); err != nil {
		return nil, store.Info{}, err
	}

	info, ok := l.cache.Info(name)
	if !ok {
		return nil, store.Info{}, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	if err := l.cache.Resolve(ctx, name); err != nil {
		return nil, store.Info{}, err
	}

	data, ok := l.cache.Get(name)
	if !ok {
		return nil, store.Info{}, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	return data, info, nil
}
