package collection

import (
	"fmt"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/inceptionview/summary"
)

// Reserved payload fields.
const (
	FieldRef      = "$ref"      // UNID of the parent document
	FieldConflict = "$Conflict" // marks a replication conflict
)

// Document is immutable once stored: mutations replace it.
type Document struct {
	NoteID   uint32
	UNID     uuid.UUID
	Parent   uuid.UUID
	Modified time.Time
	Payload  jsontext.Value

	values   []summary.Value
	conflict bool
}

// IsResponse reports whether the document declares a parent.
func (d *Document) IsResponse() bool {
	return d.Parent != uuid.Nil
}

// Decode unmarshals the payload into a generic map.
func (d *Document) Decode() (map[string]interface{}, error) {
	data := map[string]interface{}{}
	err := json2.Unmarshal(d.Payload, &data)
	if err != nil {
		return nil, fmt.Errorf("decode document %d: %w", d.NoteID, err)
	}
	return data, nil
}

// Values returns the computed column values.
func (d *Document) Values() []summary.Value {
	return d.values
}

func newDocument(def *Definition, noteID uint32, unid uuid.UUID, modified time.Time, payload jsontext.Value) (*Document, error) {
	doc := &Document{
		NoteID:   noteID,
		UNID:     unid,
		Modified: modified,
		Payload:  payload,
	}

	data, err := doc.Decode()
	if err != nil {
		return nil, err
	}

	if ref, ok := data[FieldRef]; ok {
		s, _ := ref.(string)
		parent, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("document %d: bad %s '%v': %w", noteID, FieldRef, ref, err)
		}
		doc.Parent = parent
	}

	switch v := data[FieldConflict].(type) {
	case bool:
		doc.conflict = v
	case nil:
	default:
		doc.conflict = true
	}

	doc.values = def.columnValues(payload, data)

	// every column value must fit an entry of the summary buffer
	var scratch []byte
	for i, v := range doc.values {
		scratch, err = summary.AppendValue(scratch[:0], v)
		if err != nil {
			return nil, fmt.Errorf("document %d: column '%s': %w", noteID, def.Columns[i].Name, err)
		}
	}

	return doc, nil
}
