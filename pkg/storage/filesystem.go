package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

// BlobName is the single file holding every record collection.
const BlobName = "records.json"

// LocalStorage persists all record collections as one JSON object keyed by
// kind. A save rewrites the whole blob and swaps it in with a single rename,
// so a batch lands completely or not at all.
type LocalStorage struct {
	baseDir string
	mu      sync.Mutex

	// rename is swapped in tests.
	rename func(oldpath, newpath string) error
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, rename: os.Rename}, nil
}

// Load returns the stored document for kind, or nil when it was never written.
func (s *LocalStorage) Load(ctx context.Context, kind models.Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, err := s.readBlob()
	if err != nil {
		return nil, err
	}
	payload, ok := blob[kind]
	if !ok {
		return nil, nil
	}
	return []byte(payload), nil
}

// Save merges docs into the current blob and replaces the file in one rename.
func (s *LocalStorage) Save(ctx context.Context, docs ...store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.readBlob()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if !json.Valid(doc.Payload) {
			return fmt.Errorf("encode %s: payload is not valid JSON", doc.Kind)
		}
		blob[doc.Kind] = json.RawMessage(doc.Payload)
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	tmp, err := s.writeTemp(data)
	if err != nil {
		return err
	}
	if err := s.rename(tmp, s.Path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace records: %w", err)
	}
	return nil
}

// Path exposes the blob file (useful for debugging).
func (s *LocalStorage) Path() string {
	return filepath.Join(s.baseDir, BlobName)
}

func (s *LocalStorage) readBlob() (map[models.Kind]json.RawMessage, error) {
	blob := make(map[models.Kind]json.RawMessage)
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return blob, nil
		}
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(data) == 0 {
		return blob, nil
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return blob, nil
}

func (s *LocalStorage) writeTemp(data []byte) (string, error) {
	file, err := os.CreateTemp(s.baseDir, ".records-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for records: %w", err)
	}
	name := file.Name()
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write records: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("sync records: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close records: %w", err)
	}
	return name, nil
}
