package halstore

import (
	"testing"

	"github.com/matryer/is"
)

func TestRegisterTypeKeepsDeclarationOrder(t *testing.T) {
	is := is.New(t)
	ResetRegistry()

	RegisterType("book",
		Attribute("title"),
		HasOne("author", "author"),
		HasMany("comments", "comment"),
	)

	properties := PropertiesOf("book")
	is.Equal(len(properties), 3)
	is.Equal(properties[0].Name, "title")
	is.Equal(properties[1].Name, "author")
	is.Equal(properties[2].Name, "comments")
}

func TestRegisterTypeTwiceExtendsTheList(t *testing.T) {
	is := is.New(t)
	ResetRegistry()

	RegisterType("book", Attribute("title"))
	RegisterType("book", Attribute("published"))

	properties := PropertiesOf("book")
	is.Equal(len(properties), 2)
	is.Equal(properties[1].Name, "published")
}

func TestPropertyOf(t *testing.T) {
	is := is.New(t)
	ResetRegistry()

	RegisterType("book", HasOne("author", "author", InPayload()))

	p, err := PropertyOf("book", "author")
	is.NoErr(err)
	is.Equal(p.Kind, KindHasOne)
	is.Equal(p.Target, "author")
	is.True(p.IncludeInPayload)

	_, err = PropertyOf("book", "publisher")
	is.True(err != nil)
}

func TestPropertiesOfReturnsACopy(t *testing.T) {
	is := is.New(t)
	ResetRegistry()

	RegisterType("book", Attribute("title"))

	properties := PropertiesOf("book")
	properties[0].Name = "mutated"

	again := PropertiesOf("book")
	is.Equal(again[0].Name, "title")
}

func TestPropertiesOfUnknownTypeIsEmpty(t *testing.T) {
	is := is.New(t)
	ResetRegistry()

	is.Equal(len(PropertiesOf("nosuchtype")), 0)
}
