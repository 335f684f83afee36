package apiviewv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
)

type locateRequest struct {
	collationInput `json:",inline"`

	NoteID uint32 `json:"noteId"`
	UNID   string `json:"unid"`
}

type LocateResponse struct {
	NoteID   uint32 `json:"noteId"`
	Position string `json:"position"`
}

func locate(ctx context.Context, r *http.Request) (*LocateResponse, error) {

	input := &locateRequest{}
	err := readInput(r, input)
	if err != nil {
		return nil, err
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	s := GetServicer(ctx)

	if input.UNID != "" {
		col, err := s.Collection(viewName)
		if err != nil {
			return nil, err
		}
		doc, ok := col.GetByUNID(input.UNID)
		if !ok {
			return nil, fmt.Errorf("%w: unid '%s'", ErrDocumentNotFound, input.UNID)
		}
		input.NoteID = doc.NoteID
	}

	result := &LocateResponse{NoteID: input.NoteID}
	err = s.WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {
		err := input.apply(ctx, e)
		if err != nil {
			return err
		}
		result.Position, err = e.LocateNote(ctx, input.NoteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
