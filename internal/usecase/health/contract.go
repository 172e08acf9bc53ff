package health

import (
	"context"

	"github.com/kailas-cloud/docset/internal/db"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexInspector reads a live model index; db.ErrIndexNotFound means absent.
type IndexInspector interface {
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
}
