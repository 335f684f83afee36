package apiviewv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
)

type patchRequest struct {
	NoteID uint32                 `json:"noteId"`
	UNID   string                 `json:"unid"`
	Patch  map[string]interface{} `json:"patch"`
}

// patch applies a JSON merge patch to one document and returns it.
func patch(ctx context.Context, r *http.Request) (*DocumentResponse, error) {

	input := &patchRequest{}
	err := readInput(r, input)
	if err != nil {
		return nil, err
	}
	if input.Patch == nil {
		return nil, fmt.Errorf("%w: missing patch", cursor.ErrInvalidArgument)
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	col, err := GetServicer(ctx).Collection(viewName)
	if err != nil {
		return nil, err
	}

	id := input.NoteID
	if input.UNID != "" {
		doc, ok := col.GetByUNID(input.UNID)
		if !ok {
			return nil, fmt.Errorf("%w: unid '%s'", ErrDocumentNotFound, input.UNID)
		}
		id = doc.NoteID
	}

	doc, err := col.Patch(id, input.Patch)
	if err != nil {
		return nil, err
	}

	data, err := doc.Decode()
	if err != nil {
		return nil, err
	}

	return &DocumentResponse{
		NoteID:   doc.NoteID,
		UNID:     doc.UNID.String(),
		Document: data,
	}, nil
}
