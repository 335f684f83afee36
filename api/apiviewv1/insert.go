package apiviewv1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/sjson"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/cursor"
)

type DocumentResponse struct {
	NoteID   uint32                 `json:"noteId"`
	UNID     string                 `json:"unid"`
	Document map[string]interface{} `json:"document,omitempty"`
}

// insert reads one document per line and answers one line per inserted
// document. With ?parent=<unid> every document is stored as a response to
// that parent.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	viewName := box.GetUrlParameter(ctx, "viewName")
	col, err := GetServicer(ctx).Collection(viewName)
	if err != nil {
		return err
	}

	parent := r.URL.Query().Get("parent")
	if parent != "" {
		if _, ok := col.GetByUNID(parent); !ok {
			return fmt.Errorf("%w: parent '%s'", ErrDocumentNotFound, parent)
		}
	}

	dec := jsontext.NewDecoder(r.Body)
	enc := jsontext.NewEncoder(w)

	for i := 0; true; i++ {
		item, err := dec.ReadValue()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err == nil && item.Kind() != '{' {
			err = fmt.Errorf("line %d is not an object", i+1)
		}
		if err != nil {
			if i == 0 {
				return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
			}
			return err
		}

		if parent != "" {
			raw, err := sjson.SetBytes(item.Clone(), collection.FieldRef, parent)
			if err != nil {
				return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
			}
			item = raw
		}

		doc, err := col.Insert(item)
		if err != nil {
			return err
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		json2.MarshalEncode(enc, DocumentResponse{
			NoteID: doc.NoteID,
			UNID:   doc.UNID.String(),
		})
	}

	return nil
}
