package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const TEMP_FILE_PREFIX = ".upload-"

var ErrInvalidName error = errors.New("file name must be a single path element")

// Store is a flat directory of uploaded files. Writes go to a temp file in
// the same directory and are renamed into place, so readers only ever see
// complete files and concurrent writes to the same name resolve to whichever
// rename lands last.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload dir %s: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Msg("upload dir ready")

	return &Store{fs: fs, dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under name, replacing any existing file.
func (s *Store) Save(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp_path := filepath.Join(s.dir, TEMP_FILE_PREFIX+uuid.New().String())
	if err := afero.WriteFile(s.fs, tmp_path, data, 0o644); err != nil {
		s.remove(tmp_path)
		return fmt.Errorf("could not write %s: %w", name, err)
	}

	if err := s.fs.Rename(tmp_path, path); err != nil {
		s.remove(tmp_path)
		return fmt.Errorf("could not move %s into place: %w", name, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("saved file")

	return nil
}

// Open returns the named file. A missing file yields an error matching
// fs.ErrNotExist.
func (s *Store) Open(name string) (afero.File, fs.FileInfo, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	return f, info, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" ||
		name == "." ||
		name == ".." ||
		strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, TEMP_FILE_PREFIX) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) remove(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Err(err).Msg("could not clean up temp file")
	}
}
