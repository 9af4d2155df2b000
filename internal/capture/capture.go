package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrPermissionDenied means the camera permission was not granted.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrCancelled means the user backed out of the camera without taking a picture.
	ErrCancelled = errors.New("capture cancelled")
)

// Image is a captured photograph held only in memory.
type Image struct {
	Name string // path or handle the bytes came from
	Data []byte
}

// Permission asks the platform for camera access.
type Permission interface {
	Request(ctx context.Context) (bool, error)
}

// Source takes a picture.
type Source interface {
	Capture(ctx context.Context) (*Image, error)
}

// StaticPermission answers every request with the same decision.
type StaticPermission bool

func (p StaticPermission) Request(ctx context.Context) (bool, error) {
	return bool(p), ctx.Err()
}

// FileSource stands in for a camera by reading a photo from disk.
type FileSource struct {
	Path string
}

// Capture reads the file. An empty path is reported as ErrCancelled, the way
// a dismissed camera screen returns no picture.
func (s FileSource) Capture(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return nil, ErrCancelled
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read photo: %s is empty", filepath.Base(s.Path))
	}
	return &Image{Name: s.Path, Data: data}, nil
}

// Camera pairs a permission check with a source: the source is only used
// once permission has been granted.
type Camera struct {
	Permission Permission
	Source     Source
}

// Take requests permission and then captures.
func (c Camera) Take(ctx context.Context) (*Image, error) {
	granted, err := c.Permission.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("request camera permission: %w", err)
	}
	if !granted {
		return nil, ErrPermissionDenied
	}
	return c.Source.Capture(ctx)
}
