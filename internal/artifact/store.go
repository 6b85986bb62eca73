// Package artifact mirrors per-run output files to object storage.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get for unknown objects.
var ErrNotFound = errors.New("artifact not found")

// Store persists files grouped under a prefix.
type Store interface {
	Put(ctx context.Context, prefix, name string, content []byte) error
	Get(ctx context.Context, prefix, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

func objectKey(prefix, name string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(name), "/")
	return strings.Trim(strings.TrimSpace(prefix), "/") + "/" + normalized
}

func validate(prefix, name string) error {
	if strings.TrimSpace(prefix) == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
