// Package archive stores raw document payloads that are too large to carry
// inline in the repository.
package archive

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when no payload is stored under a key
var ErrNotFound = goerr.New("archive object not found")

// Archive is a write-once payload store keyed by document
type Archive interface {
	Put(ctx context.Context, key string, data []byte) error
	Fetch(ctx context.Context, key string) ([]byte, error)
}
