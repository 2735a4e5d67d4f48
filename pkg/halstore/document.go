package halstore

import (
	"context"

	"github.com/hypermedia-labs/halstore/pkg/hal"
)

// Document is an ordered collection of models plus the untouched meta
// fields of the collection response it was parsed from. Documents are
// identity mapped just like models, keyed by the request URL or by a
// generated local identifier when synthesized from an assignment.
type Document struct {
	identifier string
	models     []*Model
	meta       map[string]any
}

func NewDocument(identifier string, models []*Model, meta map[string]any) *Document {
	if meta == nil {
		meta = map[string]any{}
	}

	return &Document{
		identifier: identifier,
		models:     models,
		meta:       meta,
	}
}

// NewDocumentFromCollection builds one model per collection item, saves
// each to the store and wraps them in a document under the given
// identifier. Pagination and meta fields pass through unmodified.
func NewDocumentFromCollection(ctx context.Context, typeName, identifier string, collection *hal.Collection, store *Store) *Document {
	models := make([]*Model, 0, len(collection.Items))

	for _, item := range collection.Items {
		m := NewModelFromResource(ctx, typeName, item, store)
		store.Save(m)
		models = append(models, m)
	}

	return NewDocument(identifier, models, collection.Meta)
}

func (d *Document) Identifier() string {
	return d.identifier
}

// Models returns the document's members in response order.
func (d *Document) Models() []*Model {
	return d.models
}

func (d *Document) Meta() map[string]any {
	return d.meta
}

func (d *Document) Len() int {
	return len(d.models)
}
