package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tailored-agentic-units/coach/store"
)

const (
	fileExt        = ".json"
	fileNameLayout = "session-2006-01-02-15-04-05"
)

// FileInfo describes a saved session file.
type FileInfo struct {
	Filename string    `json:"filename"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// DeleteResult reports the outcome of a batch delete.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
	Errors  []string `json:"errors"`
}

// Store persists session records as indented JSON files in a flat
// namespace.
type Store struct {
	files store.Store
	now   func() time.Time
}

// NewStore creates a Store over files.
func NewStore(files store.Store) *Store {
	return &Store{files: files, now: time.Now}
}

// FileName normalizes a session name to its file name. An empty name
// yields a timestamped name. Names containing path separators or ".." are
// rejected.
func (s *Store) FileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.now().Format(fileNameLayout)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, fileExt) {
		name += fileExt
	}
	if err := store.ValidateKey(name); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	return name, nil
}

// Save writes rec under name and returns the file name used.
func (s *Store) Save(ctx context.Context, name string, rec Record) (string, error) {
	filename, err := s.FileName(name)
	if err != nil {
		return "", err
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	if rec.Name == "" {
		rec.Name = strings.TrimSuffix(filename, fileExt)
	}
	rec.mirrorDrafts()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", store.ErrSaveFailed, filename, err)
	}

	if err := s.files.Save(ctx, store.Entry{Key: filename, Value: data}); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads the record saved under name.
func (s *Store) Load(ctx context.Context, name string) (Record, error) {
	filename, err := s.named(name)
	if err != nil {
		return Record{}, err
	}

	entries, err := s.files.Load(ctx, filename)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return Record{}, fmt.Errorf("%w: %s", ErrSessionNotFound, filename)
		}
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(entries[0].Value, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, filename, err)
	}
	return rec, nil
}

// List returns the saved session files, newest name first.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	infos, err := s.files.List(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(infos))
	for _, info := range infos {
		if strings.Contains(info.Key, "/") || !strings.HasSuffix(info.Key, fileExt) {
			continue
		}
		files = append(files, FileInfo{
			Filename: info.Key,
			Modified: info.Modified,
			Size:     info.Size,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename > files[j].Filename
	})
	return files, nil
}

// Delete removes a single saved session.
func (s *Store) Delete(ctx context.Context, name string) error {
	filename, err := s.named(name)
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, filename); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, filename)
		}
		return err
	}
	return nil
}

// DeleteMany removes each named session, collecting per-name failures
// instead of stopping at the first one.
func (s *Store) DeleteMany(ctx context.Context, names ...string) DeleteResult {
	result := DeleteResult{Deleted: []string{}, Errors: []string{}}
	for _, name := range names {
		if err := s.Delete(ctx, name); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		result.Deleted = append(result.Deleted, name)
	}
	return result
}

func (s *Store) named(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	return s.FileName(name)
}
