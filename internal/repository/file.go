package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/set-night/ledgerbot/internal/domain"
)

// FileBackend keeps the snapshot as one JSON document on local disk.
// The revision of a version is the sha256 of its bytes.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSnapshotMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Move the unreadable file aside so it can be inspected and a fresh
		// snapshot can take its place.
		aside := fmt.Sprintf("%s.corrupt-%d", b.path, time.Now().Unix())
		if rerr := os.Rename(b.path, aside); rerr != nil {
			return nil, fmt.Errorf("quarantine snapshot: %w: %w", domain.ErrStorageUnavailable, rerr)
		}
		slog.Warn("corrupt snapshot moved aside", "path", b.path, "moved_to", aside, "error", err)
		return nil, &domain.CorruptError{Err: err}
	}
	snap.Revision = revisionOf(data)
	return &snap, nil
}

// Save atomically replaces the stored document. It fails with ErrRaceLost
// when the file no longer holds the revision snap was loaded from. On
// success snap.Revision is advanced to the new version.
func (b *FileBackend) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.currentRevision()
	if err != nil {
		return err
	}
	if current != snap.Revision {
		return fmt.Errorf("save snapshot: %w", domain.ErrRaceLost)
	}

	if err := writeFileAtomic(b.path, data); err != nil {
		return fmt.Errorf("write snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}
	snap.Revision = revisionOf(data)
	return nil
}

func (b *FileBackend) currentRevision() (string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return revisionOf(data), nil
}

// writeFileAtomic replaces path through a synced temp file in the same
// directory, so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o600, renameio.WithTempDir(dir))
}

func revisionOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
