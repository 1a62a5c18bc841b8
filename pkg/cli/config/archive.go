package config

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/service/archive"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for the oversized payload archive
type Archive struct {
	backend string
	dir     string
	bucket  string
	prefix  string
}

// Flags returns CLI flags for archive configuration
func (a *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-backend",
			Usage:       "Archive backend for oversized payloads (dir or gcs, empty to disable)",
			Category:    "Archive",
			Sources:     cli.EnvVars("GRAMMATEUS_ARCHIVE_BACKEND"),
			Destination: &a.backend,
		},
		&cli.StringFlag{
			Name:        "archive-dir",
			Usage:       "Directory for the dir archive backend",
			Category:    "Archive",
			Sources:     cli.EnvVars("GRAMMATEUS_ARCHIVE_DIR"),
			Destination: &a.dir,
		},
		&cli.StringFlag{
			Name:        "archive-gcs-bucket",
			Usage:       "Cloud Storage bucket for the gcs archive backend",
			Category:    "Archive",
			Sources:     cli.EnvVars("GRAMMATEUS_ARCHIVE_GCS_BUCKET"),
			Destination: &a.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-gcs-prefix",
			Usage:       "Object name prefix for the gcs archive backend",
			Category:    "Archive",
			Sources:     cli.EnvVars("GRAMMATEUS_ARCHIVE_GCS_PREFIX"),
			Destination: &a.prefix,
		},
	}
}

// Backend returns the configured backend type
func (a *Archive) Backend() string {
	return a.backend
}

// Configure initializes the configured archive backend. Returns nil when no
// backend is configured; documents over the inline limit are then rejected.
func (a *Archive) Configure(ctx context.Context) (archive.Archive, error) {
	switch a.backend {
	case "":
		return nil, nil

	case "dir":
		if a.dir == "" {
			return nil, goerr.New("archive-dir is required when using dir backend")
		}
		return archive.NewDir(a.dir)

	case "gcs":
		if a.bucket == "" {
			return nil, goerr.New("archive-gcs-bucket is required when using gcs backend")
		}
		return archive.NewGCS(ctx, a.bucket, archive.WithObjectPrefix(a.prefix))

	default:
		return nil, goerr.New("invalid archive backend", goerr.V("backend", a.backend))
	}
}
