package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

type removeRequest struct {
	NoteIDs []uint32 `json:"noteIds"`
	UNIDs   []string `json:"unids"`
}

// remove deletes the given documents and answers one line per removed one.
// Unknown ids are skipped.
func remove(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &removeRequest{}
	err := readInput(r, input)
	if err != nil {
		return err
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	col, err := GetServicer(ctx).Collection(viewName)
	if err != nil {
		return err
	}

	ids := append([]uint32{}, input.NoteIDs...)
	for _, unid := range input.UNIDs {
		if doc, ok := col.GetByUNID(unid); ok {
			ids = append(ids, doc.NoteID)
		}
	}

	enc := jsontext.NewEncoder(w)
	for _, id := range ids {
		doc, ok := col.Get(id)
		if !ok {
			continue
		}
		err := col.Remove(id)
		if err != nil {
			return err
		}
		json2.MarshalEncode(enc, DocumentResponse{
			NoteID: doc.NoteID,
			UNID:   doc.UNID.String(),
		})
	}

	return nil
}
