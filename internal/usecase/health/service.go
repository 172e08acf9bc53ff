// Package health reports whether the store answers and every model index is in place.
package health

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/kailas-cloud/docset/internal/db"
)

// maxInspections bounds concurrent FT.INFO calls.
const maxInspections = 8

// Status is the aggregated health.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded" // store up, some model index missing or unreadable
	Unhealthy Status = "error"    // store unreachable
)

// CheckResult is the outcome of one check.
type CheckResult string

const (
	CheckOK      CheckResult = "ok"
	CheckError   CheckResult = "error"
	CheckMissing CheckResult = "missing"
)

// Report aggregates check results. Documents holds the indexed document
// count of every model whose index could be read.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents map[string]int
}

// Service checks the store and the index behind each model.
type Service struct {
	db      DBPinger
	indexes IndexInspector
	models  map[string]string // model name -> index name
}

// New creates a Service. indexes may be nil, in which case only the store is checked.
func New(db DBPinger, indexes IndexInspector, models map[string]string) *Service {
	return &Service{db: db, indexes: indexes, models: models}
}

// Check pings the store and, when it answers, inspects every model index concurrently.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Status:    Healthy,
		Checks:    make(map[string]CheckResult, len(s.models)+1),
		Documents: make(map[string]int, len(s.models)),
	}

	if err := s.db.Ping(ctx); err != nil {
		r.Checks["database"] = CheckError
		r.Status = Unhealthy
		return r
	}
	r.Checks["database"] = CheckOK
	if s.indexes == nil {
		return r
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(maxInspections)
	for model, index := range s.models {
		p.Go(func() {
			info, err := s.indexes.IndexInfo(ctx, index)

			mu.Lock()
			defer mu.Unlock()
			key := "model:" + model
			switch {
			case errors.Is(err, db.ErrIndexNotFound):
				r.Checks[key] = CheckMissing
			case err != nil:
				r.Checks[key] = CheckError
			default:
				r.Checks[key] = CheckOK
				r.Documents[model] = info.NumDocs
				return
			}
			r.Status = Degraded
		})
	}
	p.Wait()
	return r
}
