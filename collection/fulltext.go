package collection

import (
	"strings"
	"unicode"
)

// fulltext is an inverted index: token -> set of note ids. It indexes every
// text value found at the top level of a document.
type fulltext struct {
	Index map[string]map[uint32]struct{}
}

func newFulltext() *fulltext {
	return &fulltext{
		Index: map[string]map[uint32]struct{}{},
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func documentTokens(data map[string]interface{}) []string {
	tokens := []string{}
	for key, value := range data {
		if strings.HasPrefix(key, "$") {
			continue
		}
		switch v := value.(type) {
		case string:
			tokens = append(tokens, tokenize(v)...)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					tokens = append(tokens, tokenize(s)...)
				}
			}
		}
	}
	return tokens
}

func (f *fulltext) AddDocument(doc *Document) error {
	data, err := doc.Decode()
	if err != nil {
		return err
	}

	for _, token := range documentTokens(data) {
		if _, ok := f.Index[token]; !ok {
			f.Index[token] = map[uint32]struct{}{}
		}
		f.Index[token][doc.NoteID] = struct{}{}
	}

	return nil
}

func (f *fulltext) RemoveDocument(doc *Document) error {
	data, err := doc.Decode()
	if err != nil {
		return err
	}

	for _, token := range documentTokens(data) {
		if ids, ok := f.Index[token]; ok {
			delete(ids, doc.NoteID)
			if len(ids) == 0 {
				delete(f.Index, token)
			}
		}
	}

	return nil
}

// Match returns the documents containing every token of query.
func (f *fulltext) Match(query string) map[uint32]struct{} {
	tokens := tokenize(query)
	result := map[uint32]struct{}{}
	if len(tokens) == 0 {
		return result
	}

	// start from the rarest token
	first := tokens[0]
	for _, token := range tokens[1:] {
		if len(f.Index[token]) < len(f.Index[first]) {
			first = token
		}
	}

	for id := range f.Index[first] {
		all := true
		for _, token := range tokens {
			if _, ok := f.Index[token][id]; !ok {
				all = false
				break
			}
		}
		if all {
			result[id] = struct{}{}
		}
	}

	return result
}
