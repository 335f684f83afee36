package apiviewv1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SierraSoftworks/connor"
	json2 "github.com/go-json-experiment/json"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/summary"
	"github.com/fulldump/inceptionview/utils"
)

var defaultFields = []string{"noteId", "position", "flags", "summary"}

// readInput decodes the request body over input, which already holds the
// defaults. An empty body keeps them.
func readInput(r *http.Request, input interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	err = json2.Unmarshal(body, input, json2.MatchCaseInsensitiveNames(true))
	if err != nil {
		return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
	}
	return nil
}

// collationInput selects the order a request reads the view in, either by
// slot or by column and direction.
type collationInput struct {
	Collation int    `json:"collation"`
	SortBy    string `json:"sortBy"`
	Order     string `json:"order"`
}

func (c *collationInput) apply(ctx context.Context, e *cursor.Engine) error {
	if c.SortBy != "" {
		direction, err := collation.ParseDirection(c.Order)
		if err != nil {
			return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
		}
		return e.SetCollationByColumn(ctx, c.SortBy, direction)
	}
	return e.SetCollation(ctx, c.Collation)
}

// outputInput tells which fields and columns every returned entry carries.
type outputInput struct {
	Fields    []string `json:"fields"`
	Columns   []string `json:"columns"`
	Documents bool     `json:"documents"`
}

func (o *outputInput) mask() (lookup.ReadMask, error) {
	fields := o.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	mask, err := lookup.ParseMask(fields...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
	}
	if o.Documents {
		mask |= lookup.ReadNoteID
	}
	return mask, nil
}

// decodeColumns maps the requested column names onto the view columns. Nil
// decodes them all.
func (o *outputInput) decodeColumns(view []string) []bool {
	if len(o.Columns) == 0 {
		return nil
	}
	result := make([]bool, len(view))
	for i, name := range view {
		for _, wanted := range o.Columns {
			if strings.EqualFold(name, wanted) {
				result[i] = true
			}
		}
	}
	return result
}

// keysInput are the values searched for, one per sorted column. Strings,
// numbers and lists map to their natural kind; {"instant": "<RFC3339>"}
// forces a date.
type keysInput struct {
	Mode string        `json:"mode"`
	Keys []interface{} `json:"keys"`
}

func (k *keysInput) flags() (lookup.FindFlags, error) {
	flags, err := lookup.ParseFindFlags(k.Mode)
	if err != nil {
		return 0, fmt.Errorf("%w: %s, must be [%s]", cursor.ErrInvalidArgument, err, strings.Join(utils.GetKeys(findModes), "|"))
	}
	return flags, nil
}

var findModes = map[string]bool{
	"firstEqual":     true,
	"lastEqual":      true,
	"lessThan":       true,
	"greaterThan":    true,
	"lessOrEqual":    true,
	"greaterOrEqual": true,
}

func (k *keysInput) values() ([]summary.Value, error) {
	result := make([]summary.Value, 0, len(k.Keys))
	for i, key := range k.Keys {
		v, err := keyValue(key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %d: %s", cursor.ErrInvalidArgument, i, err)
		}
		result = append(result, v)
	}
	return result, nil
}

func keyValue(key interface{}) (summary.Value, error) {
	switch v := key.(type) {
	case map[string]interface{}:
		text, ok := v["instant"].(string)
		if !ok {
			return summary.None(), fmt.Errorf("unsupported object key")
		}
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return summary.None(), err
		}
		return summary.Instant(t), nil
	case []interface{}:
		texts := []string{}
		numbers := []float64{}
		for _, item := range v {
			switch item := item.(type) {
			case string:
				texts = append(texts, item)
			case float64:
				numbers = append(numbers, item)
			default:
				return summary.None(), fmt.Errorf("unsupported list item %v", item)
			}
		}
		if len(numbers) > 0 && len(texts) > 0 {
			return summary.None(), fmt.Errorf("mixed list")
		}
		if len(numbers) > 0 {
			return summary.NumberList(numbers...), nil
		}
		return summary.TextList(texts...), nil
	}
	return summary.FromInterface(key)
}

// filterInput is a connor filter evaluated on the decoded columns.
type filterInput struct {
	Filter map[string]interface{} `json:"filter"`
}

// predicate returns nil when there is no filter. The first match error is
// kept in errp and rejects every further entry.
func (f *filterInput) predicate(errp *error) func(entry lookup.ViewEntry) bool {
	if len(f.Filter) == 0 {
		return nil
	}
	return func(entry lookup.ViewEntry) bool {
		if *errp != nil {
			return false
		}
		match, err := connor.Match(f.Filter, entry.Values())
		if err != nil {
			*errp = fmt.Errorf("%w: filter: %s", cursor.ErrInvalidArgument, err)
			return false
		}
		return match
	}
}

var ErrDocumentNotFound = errors.New("document not found")

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
