package document

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/docset/internal/domain"
	domdoc "github.com/kailas-cloud/docset/internal/domain/document"
)

// parseJSONGetResult decodes JSON.GET key $ output, which wraps the document in an array.
func parseJSONGetResult(id string, raw []byte) (*domdoc.Document, error) {
	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return domdoc.Reconstruct(id, docs[0]), nil
}

// parseSearchEntry decodes the "$" field of an FT.SEARCH hit.
func parseSearchEntry(id, raw string) (*domdoc.Document, error) {
	if raw == "" {
		return domdoc.Reconstruct(id, nil), nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return domdoc.Reconstruct(id, m), nil
}
