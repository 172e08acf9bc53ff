package document

import (
	"github.com/kailas-cloud/docset"
)

// ModelLookup resolves registered models by name.
type ModelLookup interface {
	Model(name string) (*docset.Model, error)
}
