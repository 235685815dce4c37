package keysync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/logging/fields"
)

const tempPrefix = ".keysync-"

type outputFile struct {
	name string
	data []byte
	perm os.FileMode
}

// writeAll creates the output dir and writes files one by one. Each file is replaced
// atomically, the set as a whole is not: a crash mid-way leaves a mix of old and new
// files which the next run detects as changed.
func (s *Syncer) writeAll(files []outputFile) ([]string, error) {
	dir := s.cfg.OutputDir

	if err := s.fs.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: create output dir %s: %w", ErrFilesystem, dir, err)
	}
	s.removeTempFiles()

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFileAtomic(s.fs, dir, f); err != nil {
			return written, fmt.Errorf("%w: write %s: %w", ErrFilesystem, path, err)
		}
		s.logger.Debug("wrote file", fields.Path(path))
		written = append(written, f.name)
	}

	return written, nil
}

// removeTempFiles clears temp files left behind by an interrupted run.
func (s *Syncer) removeTempFiles() {
	pattern := filepath.Join(s.cfg.OutputDir, tempPrefix+"*")
	matches, err := afero.Glob(s.fs, pattern)
	if err != nil {
		s.logger.Debug("failed to list leftover temp files", fields.Path(pattern), zap.Error(err))
		return
	}
	for _, m := range matches {
		if err := s.fs.Remove(m); err != nil {
			s.logger.Debug("failed to remove leftover temp file", fields.Path(m), zap.Error(err))
			continue
		}
		s.logger.Debug("removed leftover temp file", fields.Path(m))
	}
}

func writeFileAtomic(fs afero.Fs, dir string, f outputFile) (err error) {
	tmp, err := afero.TempFile(fs, dir, tempPrefix+f.name+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreNotExist(fs.Remove(tmpName)))
		}
	}()

	if _, err = tmp.Write(f.data); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, f.perm); err != nil {
		return err
	}

	return fs.Rename(tmpName, filepath.Join(dir, f.name))
}

func ignoreNotExist(err error) error {
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
