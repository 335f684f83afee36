package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

var (
	ErrClosed = errors.New("collection is closed")
	// ErrTooDeep rejects responses nested deeper than a position can address.
	ErrTooDeep = errors.New("response chain too deep")
)

// Quirk reproduces known misbehaviors of real index servers on atomic finds.
type Quirk int

const (
	QuirkNone Quirk = iota
	// QuirkUnknownCount reports -1 as the number of matches.
	QuirkUnknownCount
	// QuirkEmptyBuffer reports the matches but returns no entries.
	QuirkEmptyBuffer
)

type Options struct {
	BuildVersion  uint16
	MaxBufferSize int
	Quirk         Quirk
}

const (
	DefaultBuildVersion  = 450
	DefaultMaxBufferSize = 64 * 1024
)

func (o Options) withDefaults() Options {
	if o.BuildVersion == 0 {
		o.BuildVersion = DefaultBuildVersion
	}
	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = DefaultMaxBufferSize
	}
	return o
}

type Collection struct {
	filename   string // empty for in memory collections
	file       *os.File
	definition *Definition
	collations *collation.Map
	names      []string
	options    Options

	mutex      sync.RWMutex
	documents  map[uint32]*Document
	byUNID     map[uuid.UUID]*Document
	sorted     []*sortedIndex // one per collation slot
	fulltext   *fulltext
	nextNoteID uint32
	sequence   uint32

	layoutMutex sync.Mutex
	layouts     map[int]*layout
}

// Open loads the collection stored at filename, replaying its command log,
// and keeps the file open for appending. An empty filename gives a volatile
// collection.
func Open(filename string, def *Definition, options Options) (*Collection, error) {

	err := def.Validate()
	if err != nil {
		return nil, err
	}

	c := &Collection{
		filename:   filename,
		definition: def,
		collations: def.Collations(),
		names:      def.ColumnNames(),
		options:    options.withDefaults(),
		documents:  map[uint32]*Document{},
		byUNID:     map[uuid.UUID]*Document{},
		fulltext:   newFulltext(),
		nextNoteID: 4,
		layouts:    map[int]*layout{},
	}

	for slot := 0; slot <= c.collations.Len(); slot++ {
		keys, err := sortKeys(def, c.collations, slot)
		if err != nil {
			return nil, err
		}
		c.sorted = append(c.sorted, newSortedIndex(keys))
	}

	if filename == "" {
		return c, nil
	}

	err = c.replay()
	if err != nil {
		return nil, err
	}

	// Open file for append only
	c.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	return c, nil
}

func (c *Collection) replay() error {
	f, err := os.OpenFile(c.filename, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("open file for read: %w", err)
	}
	defer f.Close()

	decoder := jsontext.NewDecoder(f)
	for {
		command := &Command{}
		err := json2.UnmarshalDecode(decoder, command)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode json: %w", err)
		}

		switch command.Name {
		case "insert":
			params := &insertPayload{}
			err = json2.Unmarshal(command.Payload, params)
			if err != nil {
				return fmt.Errorf("decode insert: %w", err)
			}
			unid, err := uuid.Parse(params.UNID)
			if err != nil {
				return fmt.Errorf("insert %d: %w", params.NoteID, err)
			}
			doc, err := newDocument(c.definition, params.NoteID, unid, time.Unix(0, params.Modified).UTC(), params.Data)
			if err != nil {
				return err
			}
			err = c.addDocument(doc)
			if err != nil {
				return err
			}
			if doc.NoteID >= c.nextNoteID {
				c.nextNoteID = doc.NoteID + 4
			}
		case "remove":
			params := &removePayload{}
			err = json2.Unmarshal(command.Payload, params)
			if err != nil {
				return fmt.Errorf("decode remove: %w", err)
			}
			doc, ok := c.documents[params.NoteID]
			if !ok {
				continue
			}
			c.removeDocument(doc)
		case "patch":
			params := &patchPayload{}
			err = json2.Unmarshal(command.Payload, params)
			if err != nil {
				return fmt.Errorf("decode patch: %w", err)
			}
			doc, ok := c.documents[params.NoteID]
			if !ok {
				continue
			}
			_, _, err := c.patchDocument(doc, params.Diff, time.Unix(0, params.Modified).UTC())
			if err != nil {
				return fmt.Errorf("patch %d: %w", params.NoteID, err)
			}
		}
	}

	return nil
}

func (c *Collection) persist(name string, payload interface{}) error {
	if c.filename == "" {
		return nil
	}
	if c.file == nil {
		return ErrClosed
	}

	data, err := json2.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		StartByte: 0,
		Payload:   data,
	}

	line, err := json2.Marshal(command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}
	_, err = c.file.Write(append(line, '\n'))
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	return nil
}

func (c *Collection) closed() bool {
	return c.filename != "" && c.file == nil
}

// invalidate drops cached layouts. Caller holds the write lock.
func (c *Collection) invalidate(structural bool) {
	c.layouts = map[int]*layout{}
	if structural {
		c.sequence++
	}
}

func (c *Collection) addDocument(doc *Document) error {
	if _, exists := c.documents[doc.NoteID]; exists {
		return fmt.Errorf("note %d already exists", doc.NoteID)
	}
	if _, exists := c.byUNID[doc.UNID]; exists {
		return fmt.Errorf("unid %s already exists", doc.UNID)
	}

	err := c.fulltext.AddDocument(doc)
	if err != nil {
		return err
	}
	for _, index := range c.sorted {
		index.AddDocument(doc)
	}
	c.documents[doc.NoteID] = doc
	c.byUNID[doc.UNID] = doc
	c.invalidate(true)

	return nil
}

func (c *Collection) removeDocument(doc *Document) {
	c.fulltext.RemoveDocument(doc)
	for _, index := range c.sorted {
		index.RemoveDocument(doc)
	}
	delete(c.documents, doc.NoteID)
	delete(c.byUNID, doc.UNID)
	c.invalidate(true)
}

// patchDocument merges patch into doc and replaces it. It returns the new
// document and the effective diff.
func (c *Collection) patchDocument(doc *Document, patch []byte, modified time.Time) (*Document, []byte, error) {

	newPayload, err := jsonpatch.MergePatch(doc.Payload, patch)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot apply patch: %w", err)
	}

	diff, err := jsonpatch.CreateMergePatch(doc.Payload, newPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot diff: %w", err)
	}

	patched, err := newDocument(c.definition, doc.NoteID, doc.UNID, modified, newPayload)
	if err != nil {
		return nil, nil, err
	}
	err = c.checkDepth(patched)
	if err != nil {
		return nil, nil, err
	}

	c.fulltext.RemoveDocument(doc)
	for _, index := range c.sorted {
		index.RemoveDocument(doc)
	}
	err = c.fulltext.AddDocument(patched)
	if err != nil {
		return nil, nil, err
	}
	for _, index := range c.sorted {
		index.AddDocument(patched)
	}
	c.documents[doc.NoteID] = patched
	c.byUNID[doc.UNID] = patched

	c.invalidate(c.movesEntry(doc, patched))

	return patched, diff, nil
}

// movesEntry reports whether replacing a by b can change the shape of the
// view: position, category membership or parent.
func (c *Collection) movesEntry(a, b *Document) bool {
	if a.Parent != b.Parent || a.conflict != b.conflict {
		return true
	}
	for i, col := range c.definition.Columns {
		if col.affectsOrder() && summary.Compare(a.values[i], b.values[i]) != 0 {
			return true
		}
	}
	return false
}

// checkDepth fails when doc, under its chain of parents and the category
// levels, would need more tumbler components than a position holds. A chain
// that reaches doc again has no end and fails too.
func (c *Collection) checkDepth(doc *Document) error {
	depth := c.definition.categoryLevels() + 1
	for parent := doc.Parent; parent != uuid.Nil; {
		depth++
		if depth > position.MaxDepth {
			return fmt.Errorf("%w: document %d is nested more than %d levels", ErrTooDeep, doc.NoteID, position.MaxDepth)
		}
		if parent == doc.UNID {
			return fmt.Errorf("%w: document %d would be its own ancestor", ErrTooDeep, doc.NoteID)
		}
		p, ok := c.byUNID[parent]
		if !ok {
			break
		}
		parent = p.Parent
	}
	return nil
}

// Insert stores item, which must encode as a JSON object.
func (c *Collection) Insert(item interface{}) (*Document, error) {

	payload, err := json2.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed() {
		return nil, ErrClosed
	}

	payload, err = c.definition.applyDefaults(payload, c.nextNoteID)
	if err != nil {
		return nil, err
	}

	doc, err := newDocument(c.definition, c.nextNoteID, uuid.New(), time.Now().UTC(), payload)
	if err != nil {
		return nil, err
	}
	err = c.checkDepth(doc)
	if err != nil {
		return nil, err
	}

	err = c.addDocument(doc)
	if err != nil {
		return nil, err
	}
	c.nextNoteID += 4

	err = c.persist("insert", &insertPayload{
		NoteID:   doc.NoteID,
		UNID:     doc.UNID.String(),
		Modified: doc.Modified.UnixNano(),
		Data:     doc.Payload,
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *Collection) Remove(noteID uint32) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed() {
		return ErrClosed
	}

	doc, ok := c.documents[noteID]
	if !ok {
		return lookup.NewStatusError(lookup.StatusNotFound, fmt.Sprintf("note %d", noteID))
	}

	c.removeDocument(doc)

	return c.persist("remove", &removePayload{NoteID: noteID})
}

// Patch applies a JSON merge patch to a document.
func (c *Collection) Patch(noteID uint32, patch interface{}) (*Document, error) {

	patchBytes, err := json2.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed() {
		return nil, ErrClosed
	}

	doc, ok := c.documents[noteID]
	if !ok {
		return nil, lookup.NewStatusError(lookup.StatusNotFound, fmt.Sprintf("note %d", noteID))
	}

	patched, diff, err := c.patchDocument(doc, patchBytes, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if string(diff) == "{}" {
		return patched, nil
	}

	err = c.persist("patch", &patchPayload{
		NoteID:   noteID,
		Modified: patched.Modified.UnixNano(),
		Diff:     diff,
	})
	if err != nil {
		return nil, err
	}

	return patched, nil
}

func (c *Collection) Get(noteID uint32) (*Document, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	doc, ok := c.documents[noteID]
	return doc, ok
}

func (c *Collection) GetByUNID(unid string) (*Document, bool) {
	id, err := uuid.Parse(unid)
	if err != nil {
		return nil, false
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	doc, ok := c.byUNID[id]
	return doc, ok
}

func (c *Collection) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.documents)
}

// Sequence changes every time an entry is added, removed or moved.
func (c *Collection) Sequence() uint32 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.sequence
}

func (c *Collection) Definition() *Definition {
	return c.definition
}

func (c *Collection) Collations() *collation.Map {
	return c.collations
}

// LoadDocuments decodes the payload of the given notes. Unknown ids are
// left out of the result.
func (c *Collection) LoadDocuments(ctx context.Context, ids []uint32) (map[uint32]map[string]interface{}, error) {
	result := make(map[uint32]map[string]interface{}, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := c.Get(id)
		if !ok {
			continue
		}
		data, err := doc.Decode()
		if err != nil {
			return nil, err
		}
		result[id] = data
	}
	return result, nil
}

func (c *Collection) layout(slot int) *layout {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	c.layoutMutex.Lock()
	defer c.layoutMutex.Unlock()

	if l, ok := c.layouts[slot]; ok {
		return l
	}
	l := buildLayout(c, slot)
	c.layouts[slot] = l
	return l
}

func (c *Collection) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *Collection) Drop() error {
	err := c.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if c.filename == "" {
		return nil
	}

	err = os.Remove(c.filename)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
