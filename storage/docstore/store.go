// Package docstore is a minimal document database: named collections of JSON documents keyed by id.
// Backends keep documents in insertion order and guarantee per-document atomicity only.
package docstore

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound    = errors.New("document not found")
	ErrDuplicateID = errors.New("document id already exists")
	errBadField    = errors.New("invalid filter field")
	errBadOut      = errors.New("out must be a pointer to a slice")

	fieldRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type Store interface {
	// Insert adds a new document; ErrDuplicateID if id is taken in the collection.
	Insert(ctx context.Context, collection, id string, doc interface{}) error
	// Put inserts or replaces a document. A replaced document keeps its position.
	Put(ctx context.Context, collection, id string, doc interface{}) error
	// Get decodes the document into out; ErrNotFound if absent.
	Get(ctx context.Context, collection, id string, out interface{}) error
	// FindOne decodes the first document matching all filters into out; ErrNotFound if none.
	FindOne(ctx context.Context, collection string, out interface{}, filters ...Filter) error
	// Find decodes every document matching all filters into out (a *[]T), in insertion order.
	Find(ctx context.Context, collection string, out interface{}, filters ...Filter) error
	Close() error
}

type op int

const (
	opEq op = iota
	opContains
)

// Filter restricts a query on a top-level string field of the documents.
type Filter struct {
	Field string
	Value string
	op    op
}

// Eq matches documents whose field equals value.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value, op: opEq}
}

// Contains matches documents whose array field holds value.
func Contains(field, value string) Filter {
	return Filter{Field: field, Value: value, op: opContains}
}

func checkFilters(filters []Filter) error {
	for _, f := range filters {
		if !fieldRegex.MatchString(f.Field) {
			return errors.Wrap(errBadField, f.Field)
		}
	}
	return nil
}

// match evaluates the filters against a raw JSON document.
func match(raw []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, errors.Wrap(err, "decoding document")
	}
	for _, f := range filters {
		switch f.op {
		case opEq:
			if s, ok := fields[f.Field].(string); !ok || s != f.Value {
				return false, nil
			}
		case opContains:
			items, _ := fields[f.Field].([]interface{})
			var found bool
			for _, item := range items {
				if s, ok := item.(string); ok && s == f.Value {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
	}
	return true, nil
}

func encode(doc interface{}) ([]byte, error) {
	raw, err := json.Marshal(doc)
	return raw, errors.Wrap(err, "encoding document")
}

// decodeList decodes raw documents into out, which must be a pointer to a slice.
// No documents yields an empty, non-nil slice.
func decodeList(docs [][]byte, out interface{}) error {
	var b strings.Builder
	b.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(doc)
	}
	b.WriteByte(']')
	if err := json.Unmarshal([]byte(b.String()), out); err != nil {
		if _, ok := err.(*json.InvalidUnmarshalError); ok {
			return errBadOut
		}
		return errors.Wrap(err, "decoding documents")
	}
	return nil
}
