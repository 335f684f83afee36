package collection

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

var ErrInvalidDefinition = errors.New("invalid view definition")

// Column describes how a view column is computed from a document and how it
// takes part in sorting.
type Column struct {
	Name string `json:"name" yaml:"name"`
	// Item is the document field shown in the column. Defaults to Name.
	// "a.b" reads field b of the object in field a.
	Item string `json:"item,omitempty" yaml:"item"`
	// Type forces a conversion of the field value: "", "text", "number" or
	// "instant" (RFC3339 strings).
	Type             string `json:"type,omitempty" yaml:"type"`
	Sorted           bool   `json:"sorted,omitempty" yaml:"sorted"`
	Descending       bool   `json:"descending,omitempty" yaml:"descending"`
	Categorized      bool   `json:"categorized,omitempty" yaml:"categorized"`
	ResortAscending  bool   `json:"resortAscending,omitempty" yaml:"resortAscending"`
	ResortDescending bool   `json:"resortDescending,omitempty" yaml:"resortDescending"`
}

func (c *Column) item() string {
	if c.Item != "" {
		return c.Item
	}
	return c.Name
}

// affectsOrder reports whether a change in this column can move an entry.
func (c *Column) affectsOrder() bool {
	return c.Sorted || c.Categorized || c.ResortAscending || c.ResortDescending
}

type Definition struct {
	Name          string   `json:"name" yaml:"name"`
	Columns       []Column `json:"columns" yaml:"columns"`
	ShowResponses bool     `json:"showResponses,omitempty" yaml:"showResponses"`
	// Defaults fill fields missing from inserted documents. The values
	// "uuid()", "unixnano()" and "auto()" (the note id) are generated.
	Defaults map[string]interface{} `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// applyDefaults fills the missing fields of payload.
func (d *Definition) applyDefaults(payload jsontext.Value, noteID uint32) (jsontext.Value, error) {
	if len(d.Defaults) == 0 {
		return payload, nil
	}

	item := map[string]interface{}{}
	err := json2.Unmarshal(payload, &item)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	for k, v := range d.Defaults {
		if item[k] != nil {
			continue
		}
		switch v {
		case "uuid()":
			item[k] = uuid.NewString()
		case "unixnano()":
			item[k] = time.Now().UnixNano()
		case "auto()":
			item[k] = noteID
		default:
			item[k] = v
		}
	}

	return json2.Marshal(item)
}

func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("%w: view '%s' has no columns", ErrInvalidDefinition, d.Name)
	}

	seen := map[string]bool{}
	leading := true
	for i, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidDefinition, i)
		}
		name := strings.ToLower(c.Name)
		if seen[name] {
			return fmt.Errorf("%w: duplicated column '%s'", ErrInvalidDefinition, c.Name)
		}
		seen[name] = true

		switch c.Type {
		case "", "text", "number", "instant":
		default:
			return fmt.Errorf("%w: column '%s' has unknown type '%s'", ErrInvalidDefinition, c.Name, c.Type)
		}

		if c.Categorized {
			if !c.Sorted {
				return fmt.Errorf("%w: categorized column '%s' must be sorted", ErrInvalidDefinition, c.Name)
			}
			if !leading {
				return fmt.Errorf("%w: categorized column '%s' must precede other sorted columns", ErrInvalidDefinition, c.Name)
			}
		} else if c.Sorted {
			leading = false
		}
	}

	if d.categoryLevels() >= position.MaxDepth {
		return fmt.Errorf("%w: more than %d categorized columns", ErrInvalidDefinition, position.MaxDepth-1)
	}

	return nil
}

// categoryLevels is the number of category levels above the documents of
// the default collation.
func (d *Definition) categoryLevels() int {
	n := 0
	for _, c := range d.Columns {
		if !c.Categorized {
			break
		}
		n++
	}
	return n
}

// Collations builds the slot map of the resortable columns.
func (d *Definition) Collations() *collation.Map {
	columns := make([]collation.Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		columns = append(columns, collation.Column{
			Item:             c.Name,
			ResortAscending:  c.ResortAscending,
			ResortDescending: c.ResortDescending,
		})
	}
	return collation.Build(columns)
}

// columnIndex finds a column by name, case insensitive.
func (d *Definition) columnIndex(name string) int {
	for i, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in view order.
func (d *Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// columnValues computes the value of every column for a decoded document.
// An item with dots is a path into nested objects, resolved on the raw
// payload.
func (d *Definition) columnValues(payload []byte, data map[string]interface{}) []summary.Value {
	values := make([]summary.Value, len(d.Columns))
	for i := range d.Columns {
		item := d.Columns[i].item()
		raw, ok := data[item]
		if !ok && strings.Contains(item, ".") {
			raw = gjson.GetBytes(payload, item).Value()
		}
		values[i] = convert(&d.Columns[i], raw)
	}
	return values
}

func convert(c *Column, raw interface{}) summary.Value {
	if c.Type == "instant" {
		if s, ok := raw.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err == nil {
				return summary.Instant(t)
			}
		}
	}

	v, err := summary.FromInterface(raw)
	if err != nil {
		return summary.None()
	}

	switch c.Type {
	case "text":
		if v.Kind() != summary.KindText && v.Kind() != summary.KindTextList && !v.IsNone() {
			return summary.Text(v.String())
		}
	case "number":
		if _, ok := v.Number(); !ok && v.Kind() != summary.KindNumberList {
			return summary.None()
		}
	}
	return v
}
