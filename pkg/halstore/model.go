package halstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
	"github.com/hypermedia-labs/halstore/pkg/hal"
)

// Model is a typed instance over a raw resource. Its accessors consult
// the descriptor registry for the model's type and the identity store
// owned by the datastore; reading a relationship is a pure cache lookup
// and never triggers a fetch.
type Model struct {
	typeName string
	localID  string

	resource   *hal.Resource
	attributes map[string]any

	store *Store
}

func newLocalIdentifier(typeName string) string {
	return "urn:local:" + typeName + ":" + uuid.NewString()
}

// NewModel constructs an empty, unsaved model of the given type.
func NewModel(typeName string, store *Store) *Model {
	return &Model{
		typeName:   typeName,
		localID:    newLocalIdentifier(typeName),
		resource:   hal.NewResource(),
		attributes: map[string]any{},
		store:      store,
	}
}

// NewModelFromResource builds a typed model over a decoded resource,
// parsing attributes according to the registered descriptors and
// materializing any embedded relationship resources into the store.
func NewModelFromResource(ctx context.Context, typeName string, resource *hal.Resource, store *Store) *Model {
	m := &Model{
		typeName:   typeName,
		localID:    newLocalIdentifier(typeName),
		resource:   resource,
		attributes: map[string]any{},
		store:      store,
	}

	for _, p := range PropertiesOf(typeName) {
		switch p.Kind {
		case KindAttribute:
			raw, ok := resource.Attribute(p.Name)
			if !ok {
				continue
			}

			if p.Construct != nil {
				m.attributes[p.Name] = p.Construct(raw)
			} else if p.TransformIn != nil {
				m.attributes[p.Name] = p.TransformIn(raw)
			} else {
				m.attributes[p.Name] = raw
			}
		case KindHasOne:
			m.materializeEmbeddedOne(ctx, p)
		case KindHasMany:
			m.materializeEmbeddedMany(ctx, p)
		}
	}

	return m
}

func (m *Model) materializeEmbeddedOne(ctx context.Context, p Property) {
	nested, ok := m.resource.EmbeddedOne(p.Name)
	if !ok {
		return
	}

	child := NewModelFromResource(ctx, p.Target, nested, m.store)
	m.store.Save(child)

	if _, linked := m.resource.Link(p.Name); !linked {
		m.resource.SetLink(p.Name, child.Identifier())
	}
}

func (m *Model) materializeEmbeddedMany(ctx context.Context, p Property) {
	nested, ok := m.resource.EmbeddedMany(p.Name)
	if !ok {
		return
	}

	members := make([]*Model, 0, len(nested))
	for _, r := range nested {
		child := NewModelFromResource(ctx, p.Target, r, m.store)
		m.store.Save(child)
		members = append(members, child)
	}

	identifier := newLocalIdentifier("document")
	if link, linked := m.resource.Link(p.Name); linked {
		identifier = link.Href
	} else {
		m.resource.SetLink(p.Name, identifier)
	}

	m.store.Save(NewDocument(identifier, members, nil))
}

func (m *Model) Type() string {
	return m.typeName
}

// Identifier returns the model's canonical identifier. The self link is
// consulted first with the construction time placeholder as fallback, so
// the result is never empty. Store keys are captured when Save is called;
// a model that learns its self link after having been saved must be
// saved again to be reachable under the new identifier.
func (m *Model) Identifier() string {
	if selfLink, ok := m.resource.SelfLink(); ok {
		return selfLink
	}

	return m.localID
}

// SelfLink returns the canonical URL of the underlying resource, or an
// empty string if the model has not been saved to the server yet.
func (m *Model) SelfLink() string {
	selfLink, _ := m.resource.SelfLink()
	return selfLink
}

// SetSelfLink assigns the canonical URL once. Assignments after the
// first are ignored.
func (m *Model) SetSelfLink(href string) {
	if _, ok := m.resource.SelfLink(); ok {
		return
	}

	m.resource.SetLink(hal.SelfRelation, href)
}

func (m *Model) Resource() *hal.Resource {
	return m.resource
}

// Attribute returns the parsed value of an attribute, or nil when the
// underlying field was absent.
func (m *Model) Attribute(name string) any {
	return m.attributes[name]
}

func (m *Model) SetAttribute(name string, value any) {
	m.attributes[name] = value
}

// One resolves a one-to-one relationship against the identity store.
// It returns nil when the relationship is not linked or the target has
// not been fetched yet.
func (m *Model) One(name string) *Model {
	link, ok := m.resource.Link(name)
	if !ok {
		return nil
	}

	return m.store.Model(link.Href)
}

// SetOne links the target model into this model's links section. This
// is a local graph edit: nothing is fetched and the target is not saved.
func (m *Model) SetOne(name string, target *Model) {
	m.resource.SetLink(name, target.Identifier())
}

// Many resolves a one-to-many relationship against the identity store
// and returns the cached document's ordered members. A linked but not
// yet fetched relationship logs a warning and returns nil.
func (m *Model) Many(ctx context.Context, name string) []*Model {
	link, ok := m.resource.Link(name)
	if !ok {
		return nil
	}

	doc := m.store.Document(link.Href)
	if doc == nil {
		log := logging.GetFromContext(ctx)
		log.Warn("relationship not fetched",
			slog.String("relation", name),
			slog.String("model_type", m.typeName),
			slog.String("identifier", m.Identifier()),
		)
		return nil
	}

	return doc.Models()
}

// SetMany synthesizes a locally identified document over the given
// models, saves it to the store and links it, so that reading the
// relationship back takes the same path as a fetched one.
func (m *Model) SetMany(name string, targets []*Model) {
	doc := NewDocument(newLocalIdentifier("document"), targets, nil)
	m.store.Save(doc)
	m.resource.SetLink(name, doc.Identifier())
}

// Payload serializes the model into its wire format write payload.
func (m *Model) Payload() map[string]any {
	payload := map[string]any{}
	links := map[string]any{}

	for _, p := range PropertiesOf(m.typeName) {
		switch p.Kind {
		case KindAttribute:
			value, ok := m.attributes[p.Name]
			if !ok {
				continue
			}

			if p.TransformOut != nil {
				payload[p.Name] = p.TransformOut(value)
			} else {
				payload[p.Name] = value
			}
		case KindHasOne:
			if !p.IncludeInPayload {
				continue
			}

			if target := m.One(p.Name); target != nil {
				links[p.Name] = hal.Link{Href: target.Identifier()}
			}
		case KindHasMany:
			if !p.IncludeInPayload {
				continue
			}

			link, ok := m.resource.Link(p.Name)
			if !ok {
				continue
			}

			doc := m.store.Document(link.Href)
			if doc == nil {
				continue
			}

			refs := make([]hal.Link, 0, len(doc.Models()))
			for _, member := range doc.Models() {
				if member == nil {
					continue
				}
				refs = append(refs, hal.Link{Href: member.Identifier()})
			}

			links[p.Name] = refs
		}
	}

	if len(links) > 0 {
		payload[hal.LinksKey] = links
	}

	return payload
}

func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Payload())
}
