package halstore

import (
	"fmt"
	"sync"
)

// Kind classifies a property descriptor and decides which accessor and
// serialization strategy applies to it.
type Kind int

const (
	KindAttribute Kind = iota
	KindHasOne
	KindHasMany
)

// Property describes one attribute or relationship of a model type.
type Property struct {
	Name string
	Kind Kind

	// Target names the related model type (relationships only)
	Target string

	// Construct builds a nested value object from the raw value
	// (attributes only, takes precedence over TransformIn)
	Construct func(raw any) any

	TransformIn  func(raw any) any
	TransformOut func(value any) any

	IncludeInPayload bool
}

type PropertyDecoratorFunc func(p *Property)

func Transformed(in func(any) any, out func(any) any) PropertyDecoratorFunc {
	return func(p *Property) {
		p.TransformIn = in
		p.TransformOut = out
	}
}

func ConstructedWith(construct func(any) any) PropertyDecoratorFunc {
	return func(p *Property) {
		p.Construct = construct
	}
}

func InPayload() PropertyDecoratorFunc {
	return func(p *Property) {
		p.IncludeInPayload = true
	}
}

// Attribute declares a plain attribute descriptor.
func Attribute(name string, decorators ...PropertyDecoratorFunc) Property {
	p := Property{Name: name, Kind: KindAttribute}

	for _, decorate := range decorators {
		decorate(&p)
	}

	return p
}

// HasOne declares a one-to-one relationship to the named model type.
func HasOne(name, target string, decorators ...PropertyDecoratorFunc) Property {
	p := Property{Name: name, Kind: KindHasOne, Target: target}

	for _, decorate := range decorators {
		decorate(&p)
	}

	return p
}

// HasMany declares a one-to-many relationship to the named model type.
func HasMany(name, target string, decorators ...PropertyDecoratorFunc) Property {
	p := Property{Name: name, Kind: KindHasMany, Target: target}

	for _, decorate := range decorators {
		decorate(&p)
	}

	return p
}

// the registry maps model type names to their ordered descriptor lists.
// Registration must complete before the first instantiation of a type;
// descriptor lists are append only and never change afterwards.
type registry struct {
	mu    sync.RWMutex
	types map[string][]Property
}

var typeRegistry = &registry{
	types: map[string][]Property{},
}

// RegisterType appends descriptors for a model type. Calling it twice for
// the same type extends the existing list in declaration order.
func RegisterType(typeName string, properties ...Property) {
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()

	typeRegistry.types[typeName] = append(typeRegistry.types[typeName], properties...)
}

// PropertiesOf returns a copy of the ordered descriptor list for a type.
func PropertiesOf(typeName string) []Property {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()

	declared := typeRegistry.types[typeName]
	properties := make([]Property, len(declared))
	copy(properties, declared)

	return properties
}

// PropertyOf finds a single descriptor by name.
func PropertyOf(typeName, propertyName string) (Property, error) {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()

	for _, p := range typeRegistry.types[typeName] {
		if p.Name == propertyName {
			return p, nil
		}
	}

	return Property{}, fmt.Errorf("property %s is not declared for type %s", propertyName, typeName)
}

// ResetRegistry clears all registered types (used for testing).
func ResetRegistry() {
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()

	typeRegistry.types = map[string][]Property{}
}
