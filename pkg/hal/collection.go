package hal

import (
	"bytes"
	"fmt"
)

// Collection is a decoded collection response: an ordered sequence of
// resources plus any remaining top level fields, which are pagination
// or meta data and are passed through unparsed.
type Collection struct {
	Items []*Resource
	Meta  map[string]any
}

// NewCollectionFromJSON decodes a collection body. Items are taken from
// the _embedded section, preferring the "items" entry and falling back
// to the sole array valued entry when there is exactly one. A raw top
// level JSON array is accepted as a collection without meta.
func NewCollectionFromJSON(body []byte) (*Collection, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		items, ok := decodeResourceArray(trimmed)
		if !ok {
			return nil, fmt.Errorf("failed to unmarshal collection body")
		}

		return &Collection{Items: items, Meta: map[string]any{}}, nil
	}

	envelope, err := NewResourceFromJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal collection: %w", err)
	}

	items, ok := envelope.EmbeddedMany(ItemsKey)
	if !ok {
		items, ok = soleEmbeddedArray(envelope)
	}

	if !ok {
		items = []*Resource{}
	}

	meta := map[string]any{}
	for k, v := range envelope.attributes {
		meta[k] = v
	}

	// collection level links (next, prev, ...) are meta as well
	if len(envelope.links) > 0 {
		links := map[string]any{}
		for rel, l := range envelope.links {
			links[rel] = map[string]any{"href": l.Href}
		}
		meta[LinksKey] = links
	}

	return &Collection{Items: items, Meta: meta}, nil
}

func soleEmbeddedArray(envelope *Resource) ([]*Resource, bool) {
	if len(envelope.embedded) != 1 {
		return nil, false
	}

	for relation := range envelope.embedded {
		return envelope.EmbeddedMany(relation)
	}

	return nil, false
}

// SelfLink returns the collection's own link from its meta, if present.
func (c *Collection) SelfLink() (string, bool) {
	links, ok := c.Meta[LinksKey].(map[string]any)
	if !ok {
		return "", false
	}

	self, ok := links[SelfRelation].(map[string]any)
	if !ok {
		return "", false
	}

	href, ok := self["href"].(string)
	if !ok || href == "" {
		return "", false
	}

	return href, true
}
