package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// batch stages files next to their targets and moves them into place
// together. Target paths are untouched until commit, and a failed commit
// puts back what was there before.
type batch struct {
	files []stagedFile
}

type stagedFile struct {
	tmp  string
	path string
}

type committed struct {
	path   string
	backup string
}

// stage writes one file to a temp file in the target directory.
func (b *batch) stage(ctx context.Context, path string, write func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", path)
	}
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", path)
	}
	b.files = append(b.files, stagedFile{tmp: tmp.Name(), path: path})
	return nil
}

// discard removes whatever is still staged.
func (b *batch) discard() {
	for _, f := range b.files {
		_ = os.Remove(f.tmp)
	}
	b.files = nil
}

// commit renames every staged file into place. Existing targets are moved
// aside first and restored if any rename fails.
func (b *batch) commit(ctx context.Context) error {
	defer b.discard()
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range b.files {
		if info, err := os.Lstat(f.path); err == nil && info.IsDir() {
			return errors.Mark(errors.Newf("%s is a directory", f.path), ErrTargetIsDir)
		}
	}

	done := make([]committed, 0, len(b.files))
	for _, f := range b.files {
		c, err := replace(f)
		if err != nil {
			rollback(done)
			return err
		}
		done = append(done, c)
	}
	for _, c := range done {
		if c.backup != "" {
			_ = os.Remove(c.backup)
		}
	}
	return nil
}

func replace(f stagedFile) (committed, error) {
	c := committed{path: f.path}
	if _, err := os.Lstat(f.path); err == nil {
		c.backup = f.tmp + ".prev"
		if err := os.Rename(f.path, c.backup); err != nil {
			return committed{}, errors.Wrapf(err, "move aside %s", f.path)
		}
	}
	if err := os.Rename(f.tmp, f.path); err != nil {
		if c.backup != "" {
			_ = os.Rename(c.backup, f.path)
		}
		return committed{}, errors.Wrapf(err, "rename into %s", f.path)
	}
	return c, nil
}

func rollback(done []committed) {
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		_ = os.Remove(c.path)
		if c.backup != "" {
			_ = os.Rename(c.backup, c.path)
		}
	}
}

// writeAtomic writes a single file through a one-file batch, so readers
// never see a partial file.
func writeAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	var b batch
	if err := b.stage(ctx, path, write); err != nil {
		return err
	}
	return b.commit(ctx)
}
