package halstore

import (
	"testing"

	"github.com/hypermedia-labs/halstore/pkg/hal"
	"github.com/matryer/is"
)

func TestNewDocumentFromCollection(t *testing.T) {
	is, ctx, store := testSetup(t)

	collection, err := hal.NewCollectionFromJSON([]byte(bookCollectionJSON))
	is.NoErr(err)

	doc := NewDocumentFromCollection(ctx, "book", "/books?limit=2", collection, store)

	is.Equal(doc.Identifier(), "/books?limit=2")
	is.Equal(doc.Len(), 2)

	models := doc.Models()
	is.Equal(models[0].Attribute("title"), "Leviathan Wakes")
	is.Equal(models[1].Attribute("title"), "Caliban's War")

	// each member is reachable through the identity store
	is.True(store.Model("/books/1") == models[0])
	is.True(store.Model("/books/2") == models[1])
}

func TestDocumentMetaPassesThrough(t *testing.T) {
	is, ctx, store := testSetup(t)

	collection, err := hal.NewCollectionFromJSON([]byte(bookCollectionJSON))
	is.NoErr(err)

	doc := NewDocumentFromCollection(ctx, "book", "/books", collection, store)

	is.Equal(doc.Meta()["total"], float64(2))
}

func TestNewDocumentWithNilMeta(t *testing.T) {
	is := is.New(t)

	doc := NewDocument("/books", nil, nil)

	is.True(doc.Meta() != nil)
	is.Equal(doc.Len(), 0)
}

const bookCollectionJSON string = `{
	"total": 2,
	"_links": {"self": {"href": "/books"}},
	"_embedded": {
		"items": [
			{
				"title": "Leviathan Wakes",
				"published": "2011-06-15",
				"_links": {"self": {"href": "/books/1"}}
			},
			{
				"title": "Caliban's War",
				"published": "2012-06-08",
				"_links": {"self": {"href": "/books/2"}}
			}
		]
	}
}`
