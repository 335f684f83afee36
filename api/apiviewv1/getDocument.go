package apiviewv1

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/collection"
)

type documentLookupResponse struct {
	NoteID   uint32                 `json:"noteId"`
	UNID     string                 `json:"unid"`
	Document map[string]interface{} `json:"document"`
	// Source tells how the id was resolved: "noteId" or "unid".
	Source string `json:"source"`
}

func getDocument(ctx context.Context) (*documentLookupResponse, error) {

	viewName := box.GetUrlParameter(ctx, "viewName")
	documentID := strings.TrimSpace(box.GetUrlParameter(ctx, "documentId"))

	if documentID == "" {
		return nil, invalidArgument("document id is required")
	}

	col, err := GetServicer(ctx).Collection(viewName)
	if err != nil {
		return nil, err
	}

	doc, source := findDocument(col, documentID)
	if doc == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, documentID)
	}

	data, err := doc.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return &documentLookupResponse{
		NoteID:   doc.NoteID,
		UNID:     doc.UNID.String(),
		Document: data,
		Source:   source,
	}, nil
}

// findDocument resolves a numeric id as a note id and anything else as a
// unid.
func findDocument(col *collection.Collection, documentID string) (*collection.Document, string) {

	if n, err := strconv.ParseUint(documentID, 10, 32); err == nil {
		doc, ok := col.Get(uint32(n))
		if !ok {
			return nil, ""
		}
		return doc, "noteId"
	}

	doc, ok := col.GetByUNID(documentID)
	if !ok {
		return nil, ""
	}
	return doc, "unid"
}
