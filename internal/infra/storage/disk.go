package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subscription-storefront/internal/domain/ports/adapter"
)

var _ adapter.FileStore = (*DiskStore)(nil)

// DiskStore keeps uploads on the local filesystem under content-hashed
// names: md5(original name + upload timestamp) + original extension. The
// key returned to callers is the path relative to the root.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("storage root empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func hashedName(originalName string, now time.Time) string {
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	stamp := now.Format("20060102150405.000000000")
	sum := md5.Sum([]byte(originalName + stamp))
	name := hex.EncodeToString(sum[:])
	if ext != "" {
		name += "." + ext
	}
	return name
}

func (s *DiskStore) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	key := hashedName(originalName, time.Now())
	dst, err := os.Create(filepath.Join(s.root, key))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return key, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	// keys are generated hashes; reject anything that escapes the root
	clean := filepath.Clean(key)
	if clean != key || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return nil, 0, errors.New("invalid storage key")
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (s *DiskStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.Clean(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
