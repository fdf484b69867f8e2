// Package storage keeps converted files in a local directory-backed bucket.
//
// Each object lives in its own directory named by a UUID, holding the
// payload and a JSON sidecar with its metadata. The store has no knowledge
// of tabular formats: it receives bytes, a name and metadata.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nconklindev/tabula/internal/logging"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no object exists with the requested id.
	ErrNotFound = errors.New("file not found")

	// ErrForbidden indicates the object belongs to another user.
	ErrForbidden = errors.New("file belongs to another user")
)

const (
	blobFile = "blob"
	metaFile = "meta.json"
)

// Config locates the bucket on disk. It is passed in at construction time
// and never read from the environment by the store itself.
type Config struct {
	Dir    string
	Bucket string
}

// Metadata describes who saved a file and how it was produced.
type Metadata struct {
	UserID         string    `json:"userId"`
	OriginalName   string    `json:"originalName"`
	ConversionType string    `json:"conversionType"`
	ConvertedAt    time.Time `json:"convertedAt"`
}

// File is a stored object's description.
type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Metadata  Metadata  `json:"metadata"`
}

// Store is a bucket of files on the local filesystem.
type Store struct {
	root string
	now  func() time.Time
}

// New creates the bucket directory if needed and returns a store on it.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: dir and bucket are required")
	}

	root := filepath.Join(cfg.Dir, cfg.Bucket)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &Store{root: root, now: time.Now}, nil
}

// Put stores data under name and returns the new file id.
func (s *Store) Put(ctx context.Context, data []byte, name string, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("storage: create object: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, blobFile), data, 0644); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("storage: write object: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file := File{
		ID:        id,
		Name:      filepath.Base(name),
		MimeType:  mimeType,
		Size:      int64(len(data)),
		CreatedAt: s.now().UTC(),
		Metadata:  meta,
	}
	if err := writeMeta(dir, file); err != nil {
		os.RemoveAll(dir)
		return "", err
	}

	logging.FromContext(ctx).Info("file stored",
		"file_id", id,
		"name", file.Name,
		"size", file.Size,
		"user_id", meta.UserID,
	)

	return id, nil
}

// List returns the files saved by userID, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list bucket: %w", err)
	}

	files := []File{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		file, err := readMeta(filepath.Join(s.root, entry.Name()))
		if err != nil {
			logging.FromContext(ctx).Warn("skipping unreadable object", "file_id", entry.Name(), "error", err)
			continue
		}
		if file.Metadata.UserID == userID {
			files = append(files, file)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})

	return files, nil
}

// Get returns a file's description and content.
func (s *Store) Get(ctx context.Context, id string) (File, []byte, error) {
	if err := ctx.Err(); err != nil {
		return File{}, nil, err
	}

	dir, err := s.objectDir(id)
	if err != nil {
		return File{}, nil, err
	}

	file, err := readMeta(dir)
	if err != nil {
		return File{}, nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, blobFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil, ErrNotFound
		}
		return File{}, nil, fmt.Errorf("storage: read object: %w", err)
	}

	return file, data, nil
}

// Delete removes a file owned by userID.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.objectDir(id)
	if err != nil {
		return err
	}

	file, err := readMeta(dir)
	if err != nil {
		return err
	}
	if file.Metadata.UserID != userID {
		return ErrForbidden
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: delete object: %w", err)
	}

	logging.FromContext(ctx).Info("file deleted", "file_id", id, "user_id", userID)
	return nil
}

// objectDir maps an id to its directory. Ids that are not UUIDs cannot
// exist, which also keeps them from escaping the bucket.
func (s *Store) objectDir(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return filepath.Join(s.root, parsed.String()), nil
}

func writeMeta(dir string, file File) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode metadata: %w", err)
	}

	tmp := filepath.Join(dir, metaFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("storage: write metadata: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, metaFile)); err != nil {
		return fmt.Errorf("storage: write metadata: %w", err)
	}
	return nil
}

func readMeta(dir string) (File, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("storage: read metadata: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("storage: decode metadata: %w", err)
	}
	return file, nil
}
