package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
)

// filesystemStorage serves materials from a local directory.
// The directory is (re)created on demand so an empty deployment lists nothing
// instead of failing.
type filesystemStorage struct {
	dir string
}

// NewFilesystem returns a Storage rooted at dir. The directory itself is
// created lazily by List and Put.
func NewFilesystem(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("materials directory is required")
	}
	return &filesystemStorage{dir: dir}, nil
}

func (s *filesystemStorage) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create materials dir: %w", err)
	}
	return nil
}

// List returns regular files only; directories and special entries are skipped.
// Symlinks count when they resolve to a regular file.
func (s *filesystemStorage) List(ctx context.Context) ([]string, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read materials dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := os.Stat(filepath.Join(s.dir, e.Name()))
		if err != nil {
			// Vanished or dangling entry; not a listable material.
			continue
		}
		if st.Mode().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *filesystemStorage) Stat(_ context.Context, name string) (ObjectInfo, error) {
	if !ValidName(name) {
		return ObjectInfo{}, ErrInvalidName
	}
	st, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}
	if !st.Mode().IsRegular() {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return infoFromFile(name, st), nil
}

func (s *filesystemStorage) Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	return f, info, nil
}

// Put writes to a temp file in the same directory and renames it into place,
// so readers never observe a partially written material.
func (s *filesystemStorage) Put(_ context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if !ValidName(name) {
		return ObjectInfo{}, ErrInvalidName
	}
	if err := s.ensureDir(); err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return ObjectInfo{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close %s: %w", name, err)
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, dst); err != nil {
		return ObjectInfo{}, fmt.Errorf("rename %s: %w", name, err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return ObjectInfo{}, err
	}
	info := infoFromFile(name, st)
	if opt.ContentType != "" {
		info.ContentType = opt.ContentType
	}
	return info, nil
}

func infoFromFile(name string, st fs.FileInfo) ObjectInfo {
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ObjectInfo{
		Key:          name,
		Size:         st.Size(),
		ContentType:  ct,
		LastModified: st.ModTime(),
	}
}
