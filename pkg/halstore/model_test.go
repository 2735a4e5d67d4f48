package halstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hypermedia-labs/halstore/pkg/hal"
	"github.com/matryer/is"
)

func TestParseAttributesOnConstruction(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)

	is.Equal(m.Attribute("title"), "Leviathan Wakes")

	published, ok := m.Attribute("published").(time.Time)
	is.True(ok) // transformed attribute should be a value object
	is.Equal(published.Year(), 2011)

	is.Equal(m.Attribute("pageCount"), nil) // absent in the body
}

func TestConstructTakesPrecedenceOverTransform(t *testing.T) {
	is, ctx, store := testSetup(t)

	RegisterType("review",
		Attribute("score",
			ConstructedWith(func(raw any) any { return rating{stars: int(raw.(float64))} }),
			Transformed(
				func(raw any) any { return "transformed" },
				func(value any) any { return value },
			),
		),
	)

	m := NewModelFromResource(ctx, "review", testResource(is, `{"score": 4}`), store)

	score, ok := m.Attribute("score").(rating)
	is.True(ok)
	is.Equal(score.stars, 4)
}

func TestPayloadAppliesOutboundTransform(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)
	payload := m.Payload()

	is.Equal(payload["title"], "Leviathan Wakes")
	is.Equal(payload["published"], "2011-06-15") // back to the wire format
}

func TestIdentifierPrefersSelfLink(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)
	is.Equal(m.Identifier(), "/books/1")
}

func TestIdentifierFallsBackToStablePlaceholder(t *testing.T) {
	is, _, store := testSetup(t)

	m := NewModel("book", store)
	is.True(m.Identifier() != "")
	is.Equal(m.Identifier(), m.Identifier())
	is.Equal(m.SelfLink(), "")
}

func TestSetSelfLinkOnlyOnce(t *testing.T) {
	is, _, store := testSetup(t)

	m := NewModel("book", store)
	m.SetSelfLink("/books/1")
	m.SetSelfLink("/books/2")

	is.Equal(m.SelfLink(), "/books/1")
}

func TestOneIsACacheLookup(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)
	is.True(m.One("author") == nil) // linked but not fetched

	author := NewModelFromResource(ctx, "author", testResource(is, storedAuthorJSON), store)
	store.Save(author)

	is.True(m.One("author") == author)
	is.True(m.One("publisher") == nil) // not linked at all
}

func TestSetOne(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, `{"title":"draft"}`), store)
	author := NewModelFromResource(ctx, "author", testResource(is, storedAuthorJSON), store)
	store.Save(author)

	m.SetOne("author", author)

	is.True(m.One("author") == author)
}

func TestManyReturnsNilUntilFetched(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)
	is.True(m.Many(ctx, "comments") == nil)
}

func TestManyReturnsCachedDocumentMembers(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)

	first := savedModel(ctx, store, "comment", "/comments/11")
	second := savedModel(ctx, store, "comment", "/comments/12")
	store.Save(NewDocument("/books/1/comments", []*Model{first, second}, nil))

	members := m.Many(ctx, "comments")
	is.Equal(len(members), 2)
	is.True(members[0] == first)
	is.True(members[1] == second)
}

func TestSetManyRoundTrip(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, `{"title":"draft"}`), store)

	first := savedModel(ctx, store, "comment", "/comments/11")
	second := savedModel(ctx, store, "comment", "/comments/12")

	m.SetMany("comments", []*Model{first, second})

	members := m.Many(ctx, "comments")
	is.Equal(len(members), 2)
	is.True(members[0] == first)
	is.True(members[1] == second)
}

func TestEmbeddedRelationshipsMaterialize(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, embeddedBookJSON), store)

	author := m.One("author")
	is.True(author != nil)
	is.Equal(author.Attribute("name"), "James S. A. Corey")
	is.True(store.Model("/authors/7") == author)

	comments := m.Many(ctx, "comments")
	is.Equal(len(comments), 2)
	is.Equal(comments[0].Attribute("body"), "first")
	is.True(store.Model("/comments/12") == comments[1])
}

func TestPayloadSerializesFlaggedRelationships(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, embeddedBookJSON), store)
	payload := m.Payload()

	links, ok := payload[hal.LinksKey].(map[string]any)
	is.True(ok)

	author, ok := links["author"].(hal.Link)
	is.True(ok)
	is.Equal(author.Href, "/authors/7")

	comments, ok := links["comments"].([]hal.Link)
	is.True(ok)
	is.Equal(len(comments), 2)
	is.Equal(comments[0].Href, "/comments/11")
}

func TestPayloadOmitsUnflaggedRelationships(t *testing.T) {
	is, ctx, store := testSetup(t)

	// comment declares its author relationship without the payload flag
	m := NewModelFromResource(ctx, "comment", testResource(is, `{
		"body": "first",
		"_links": {"self": {"href": "/comments/11"}, "author": {"href": "/authors/7"}}
	}`), store)

	payload := m.Payload()
	_, ok := payload[hal.LinksKey]
	is.True(!ok)
}

func TestPayloadSkipsUnresolvableRelationships(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)
	payload := m.Payload()

	// author and comments are linked but neither target is cached
	_, ok := payload[hal.LinksKey]
	is.True(!ok)
}

func TestMarshalJSONMatchesPayload(t *testing.T) {
	is, ctx, store := testSetup(t)

	m := NewModelFromResource(ctx, "book", testResource(is, storedBookJSON), store)

	fromModel, err := json.Marshal(m)
	is.NoErr(err)

	fromPayload, err := json.Marshal(m.Payload())
	is.NoErr(err)

	is.Equal(string(fromModel), string(fromPayload))
}

type rating struct {
	stars int
}

func testSetup(t *testing.T) (*is.I, context.Context, *Store) {
	t.Helper()

	ResetRegistry()
	RegisterType("book",
		Attribute("title"),
		Attribute("published", Transformed(parseDate, formatDate)),
		HasOne("author", "author", InPayload()),
		HasMany("comments", "comment", InPayload()),
	)
	RegisterType("author", Attribute("name"))
	RegisterType("comment",
		Attribute("body"),
		HasOne("author", "author"),
	)

	return is.New(t), context.Background(), NewStore()
}

func testResource(is *is.I, body string) *hal.Resource {
	r, err := hal.NewResourceFromJSON([]byte(body))
	is.NoErr(err)
	return r
}

func parseDate(raw any) any {
	date, _ := time.Parse("2006-01-02", raw.(string))
	return date
}

func formatDate(value any) any {
	return value.(time.Time).Format("2006-01-02")
}

const storedBookJSON string = `{
	"title": "Leviathan Wakes",
	"published": "2011-06-15",
	"_links": {
		"self": {"href": "/books/1"},
		"author": {"href": "/authors/7"},
		"comments": {"href": "/books/1/comments"}
	}
}`

const storedAuthorJSON string = `{
	"name": "James S. A. Corey",
	"_links": {"self": {"href": "/authors/7"}}
}`

const embeddedBookJSON string = `{
	"title": "Leviathan Wakes",
	"published": "2011-06-15",
	"_links": {
		"self": {"href": "/books/1"},
		"author": {"href": "/authors/7"}
	},
	"_embedded": {
		"author": {
			"name": "James S. A. Corey",
			"_links": {"self": {"href": "/authors/7"}}
		},
		"comments": [
			{"body": "first", "_links": {"self": {"href": "/comments/11"}}},
			{"body": "second", "_links": {"self": {"href": "/comments/12"}}}
		]
	}
}`
