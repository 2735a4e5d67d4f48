package hal

import (
	"encoding/json"
	"fmt"
)

const (
	LinksKey    string = "_links"
	EmbeddedKey string = "_embedded"

	SelfRelation string = "self"
	ItemsKey     string = "items"
)

// Link is a single entry in a resource's reserved links section.
type Link struct {
	Href string `json:"href"`
}

// Resource is a raw decoded HAL resource: a flat attribute map plus the
// reserved _links and _embedded sections. Malformed or absent reserved
// sections are treated as empty, never as structural errors.
type Resource struct {
	attributes map[string]any
	links      map[string]Link
	embedded   map[string]json.RawMessage
}

func NewResource() *Resource {
	return &Resource{
		attributes: map[string]any{},
		links:      map[string]Link{},
		embedded:   map[string]json.RawMessage{},
	}
}

func NewResourceFromJSON(body []byte) (*Resource, error) {
	r := NewResource()
	err := json.Unmarshal(body, r)

	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	return r, nil
}

func (r *Resource) Attribute(name string) (any, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

func (r *Resource) SetAttribute(name string, value any) {
	r.attributes[name] = value
}

func (r *Resource) Link(relation string) (Link, bool) {
	l, ok := r.links[relation]
	return l, ok
}

// SetLink writes a link entry, overwriting any previous entry for the
// same relation.
func (r *Resource) SetLink(relation, href string) {
	r.links[relation] = Link{Href: href}
}

func (r *Resource) SelfLink() (string, bool) {
	l, ok := r.links[SelfRelation]
	if !ok || l.Href == "" {
		return "", false
	}
	return l.Href, true
}

func (r *Resource) Embedded(relation string) (json.RawMessage, bool) {
	e, ok := r.embedded[relation]
	return e, ok
}

// EmbeddedOne decodes an embedded entry as a single nested resource.
func (r *Resource) EmbeddedOne(relation string) (*Resource, bool) {
	raw, ok := r.embedded[relation]
	if !ok {
		return nil, false
	}

	nested := NewResource()
	if err := json.Unmarshal(raw, nested); err != nil {
		return nil, false
	}

	return nested, true
}

// EmbeddedMany decodes an embedded entry as an array of nested resources.
func (r *Resource) EmbeddedMany(relation string) ([]*Resource, bool) {
	raw, ok := r.embedded[relation]
	if !ok {
		return nil, false
	}

	return decodeResourceArray(raw)
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	contents := map[string]any{}

	for k, v := range r.attributes {
		contents[k] = v
	}

	if len(r.links) > 0 {
		contents[LinksKey] = r.links
	}

	if len(r.embedded) > 0 {
		contents[EmbeddedKey] = r.embedded
	}

	return json.Marshal(&contents)
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	var contents map[string]any
	err := json.Unmarshal(data, &contents)
	if err != nil {
		return err
	}

	sections := struct {
		Links    json.RawMessage `json:"_links"`
		Embedded json.RawMessage `json:"_embedded"`
	}{}

	// reserved sections are best effort and default to empty
	json.Unmarshal(data, &sections)

	delete(contents, LinksKey)
	delete(contents, EmbeddedKey)

	r.attributes = contents
	r.links = map[string]Link{}
	r.embedded = map[string]json.RawMessage{}

	if len(sections.Links) > 0 {
		json.Unmarshal(sections.Links, &r.links)
	}

	if len(sections.Embedded) > 0 {
		json.Unmarshal(sections.Embedded, &r.embedded)
	}

	return nil
}

func decodeResourceArray(raw json.RawMessage) ([]*Resource, bool) {
	elements := []json.RawMessage{}
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}

	arr := make([]*Resource, 0, len(elements))

	for _, el := range elements {
		nested := NewResource()
		if err := json.Unmarshal(el, nested); err != nil {
			return nil, false
		}
		arr = append(arr, nested)
	}

	return arr, true
}
