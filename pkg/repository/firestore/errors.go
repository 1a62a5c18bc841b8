package firestore

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all Firestore stores
var (
	ErrNotFound = goerr.New("not found")

	// ErrResultExists signals a violation of the append-only contract:
	// a record accepts an extraction result at most once.
	ErrResultExists = goerr.New("extraction result already attached")
)
