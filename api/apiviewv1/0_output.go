package apiviewv1

import (
	"context"
	"io"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/lookup"
)

type EntryResponse struct {
	NoteID          uint32                 `json:"noteId"`
	UNID            string                 `json:"unid,omitempty"`
	Position        string                 `json:"position,omitempty"`
	Category        bool                   `json:"category,omitempty"`
	Response        bool                   `json:"response,omitempty"`
	Conflict        bool                   `json:"conflict,omitempty"`
	HasChildren     bool                   `json:"hasChildren,omitempty"`
	Unread          bool                   `json:"unread,omitempty"`
	ChildCount      uint32                 `json:"childCount,omitempty"`
	DescendantCount uint32                 `json:"descendantCount,omitempty"`
	SiblingCount    uint32                 `json:"siblingCount,omitempty"`
	Indent          uint16                 `json:"indent,omitempty"`
	Modified        time.Time              `json:"modified,omitzero"`
	Columns         map[string]interface{} `json:"columns,omitempty"`
	Document        map[string]interface{} `json:"document,omitempty"`
}

func newEntryResponse(e *lookup.ViewEntry, mask lookup.ReadMask) *EntryResponse {
	result := &EntryResponse{
		NoteID:          e.NoteID,
		UNID:            e.UNID,
		Category:        e.IsCategory(),
		Response:        e.Flags.Has(lookup.EntryResponse),
		Conflict:        e.Flags.Has(lookup.EntryConflict),
		HasChildren:     e.Flags.Has(lookup.EntryHasChildren),
		Unread:          e.Unread,
		ChildCount:      e.ChildCount,
		DescendantCount: e.DescendantCount,
		SiblingCount:    e.SiblingCount,
		Indent:          e.Indent,
		Modified:        e.Modified,
	}
	if mask.Has(lookup.ReadPosition) {
		result.Position = e.Position.String()
	}
	if mask.Has(lookup.ReadSummary) {
		result.Columns = e.Values()
	}
	return result
}

// writeEntries streams one JSON object per line.
func writeEntries(ctx context.Context, w io.Writer, e *cursor.Engine, entries []lookup.ViewEntry, mask lookup.ReadMask, documents bool) error {

	responses := make([]*EntryResponse, len(entries))
	for i := range entries {
		responses[i] = newEntryResponse(&entries[i], mask)
	}

	if documents {
		err := attachDocuments(ctx, e, entries, responses)
		if err != nil {
			return err
		}
	}

	enc := jsontext.NewEncoder(w)
	for _, response := range responses {
		err := json2.MarshalEncode(enc, response)
		if err != nil {
			return err
		}
	}
	return nil
}

// attachDocuments loads the documents in one call and matches them by
// order. If some document vanished meanwhile it falls back to one call per
// entry.
func attachDocuments(ctx context.Context, e *cursor.Engine, entries []lookup.ViewEntry, responses []*EntryResponse) error {

	targets := []int{}
	for i := range entries {
		if !entries[i].IsCategory() {
			targets = append(targets, i)
		}
	}

	docs, err := e.Documents(ctx, entries)
	if err != nil {
		return err
	}

	if len(docs) == len(targets) {
		for j, i := range targets {
			responses[i].Document = docs[j]
		}
		return nil
	}

	for _, i := range targets {
		docs, err := e.Documents(ctx, entries[i:i+1])
		if err != nil {
			return err
		}
		if len(docs) == 1 {
			responses[i].Document = docs[0]
		}
	}
	return nil
}
