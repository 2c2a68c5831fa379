package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskSource reads images below a root directory.
type DiskSource struct {
	root string
}

// NewDiskSource returns a source reading below root.
func NewDiskSource(root string) *DiskSource {
	return &DiskSource{root: root}
}

// Read returns the content of the image.
func (ds *DiskSource) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename, err := ds.filename(id)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return body, nil
}

func (ds *DiskSource) filename(id string) (string, error) {
	clean, err := Clean(id)
	if err != nil {
		return "", err
	}

	filename := filepath.Join(ds.root, filepath.FromSlash(clean))
	stat, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", err
	}
	if stat.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, id)
	}
	return filename, nil
}
