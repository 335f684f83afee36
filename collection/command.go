package collection

import (
	"github.com/go-json-experiment/json/jsontext"
)

// Command is one line of the collection log. Payload depends on Name.
type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	StartByte int64          `json:"start_byte"`
	Payload   jsontext.Value `json:"payload"`
}

type insertPayload struct {
	NoteID   uint32         `json:"noteId"`
	UNID     string         `json:"unid"`
	Modified int64          `json:"modified"`
	Data     jsontext.Value `json:"data"`
}

type removePayload struct {
	NoteID uint32 `json:"noteId"`
}

type patchPayload struct {
	NoteID   uint32         `json:"noteId"`
	Modified int64          `json:"modified"`
	Diff     jsontext.Value `json:"diff"`
}
