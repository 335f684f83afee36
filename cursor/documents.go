package cursor

import (
	"context"
	"fmt"

	"github.com/fulldump/inceptionview/lookup"
)

// Documents loads the documents behind entries, in entry order. Categories
// and entries whose document is gone are skipped.
func (e *Engine) Documents(ctx context.Context, entries []lookup.ViewEntry) ([]map[string]interface{}, error) {
	if e.documents == nil {
		return nil, fmt.Errorf("documents: %w", ErrCapabilityUnavailable)
	}

	ids := []uint32{}
	for i := range entries {
		if !entries[i].IsCategory() {
			ids = append(ids, entries[i].NoteID)
		}
	}

	docs, err := e.documents.LoadDocuments(ctx, ids)
	if err != nil {
		return nil, translate("documents", err)
	}

	result := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		if doc, ok := docs[id]; ok {
			result = append(result, doc)
		}
	}
	return result, nil
}
