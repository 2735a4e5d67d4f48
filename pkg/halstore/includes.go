package halstore

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// pruneIncludePaths reduces requested dotted paths to the minimal set of
// leaf paths whose resolution satisfies the full request. A path that is
// a prefix of another requested path is resolved as an intermediate step
// of the longer one and is discarded.
func pruneIncludePaths(paths []string) []string {
	pool := make([]string, len(paths))
	copy(pool, paths)

	sort.SliceStable(pool, func(i, j int) bool {
		return len(pool[i]) < len(pool[j])
	})

	kept := make([]string, 0, len(pool))

	for len(pool) > 0 {
		p := pool[0]
		pool = pool[1:]

		implied := false
		for _, q := range pool {
			if strings.HasPrefix(q, p) {
				implied = true
				break
			}
		}

		if !implied {
			kept = append(kept, p)
		}
	}

	return kept
}

// ResolveIncludes resolves the requested relationship paths rooted at
// the given model. Surviving leaf paths are fetched concurrently and the
// join fails as a whole if any one of them fails; deeper segments of a
// path start only after their own parent fetch has resolved.
func (d *Datastore) ResolveIncludes(ctx context.Context, m *Model, paths ...string) error {
	leaves := pruneIncludePaths(paths)
	if len(leaves) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, leaf := range leaves {
		g.Go(func() error {
			return d.resolveIncludePath(gctx, m, leaf)
		})
	}

	return g.Wait()
}

func (d *Datastore) resolveIncludePath(ctx context.Context, m *Model, path string) error {
	head, rest, _ := strings.Cut(path, ".")

	prop, err := PropertyOf(m.Type(), head)
	if err != nil {
		return err
	}

	link, ok := m.resource.Link(head)
	if !ok {
		// relationship not linked: nothing to fetch
		return nil
	}

	if prop.Kind == KindHasMany {
		doc := d.store.Document(link.Href)
		if doc == nil {
			doc, err = d.fetchDocument(ctx, prop.Target, link.Href)
			if err != nil {
				return err
			}
		}

		if rest == "" {
			return nil
		}

		// nested segments under a collection fan out per member
		g, gctx := errgroup.WithContext(ctx)

		for _, member := range doc.Models() {
			g.Go(func() error {
				return d.resolveIncludePath(gctx, member, rest)
			})
		}

		return g.Wait()
	}

	// attribute and one-to-one segments are single resource fetches
	child := d.store.Model(link.Href)
	if child == nil {
		typeName := prop.Target
		if typeName == "" {
			typeName = head
		}

		child, err = d.fetchModel(ctx, typeName, link.Href)
		if err != nil {
			return err
		}
	}

	if rest == "" {
		return nil
	}

	return d.resolveIncludePath(ctx, child, rest)
}
