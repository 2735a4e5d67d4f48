package main

import (
	api "github.com/hypermedia-labs/halstore/internal/pkg/presentation/api/hal"
)

// DemoFixtures returns a small library of linked sample resources so the
// server is usable out of the box.
func DemoFixtures() api.Fixtures {
	return api.Fixtures{
		"/books/1": []byte(`{
			"title": "Leviathan Wakes",
			"published": "2011-06-15",
			"_links": {
				"self": {"href": "/books/1"},
				"author": {"href": "/authors/7"},
				"comments": {"href": "/books/1/comments"}
			}
		}`),
		"/authors/7": []byte(`{
			"name": "James S. A. Corey",
			"_links": {
				"self": {"href": "/authors/7"},
				"books": {"href": "/authors/7/books"}
			}
		}`),
		"/books/1/comments": []byte(`{
			"total": 2,
			"_links": {
				"self": {"href": "/books/1/comments"}
			},
			"_embedded": {
				"items": [
					{
						"body": "A solid start to the series.",
						"_links": {
							"self": {"href": "/comments/11"},
							"author": {"href": "/authors/8"}
						}
					},
					{
						"body": "Could not put it down.",
						"_links": {
							"self": {"href": "/comments/12"},
							"author": {"href": "/authors/7"}
						}
					}
				]
			}
		}`),
		"/authors/8": []byte(`{
			"name": "A Reader",
			"_links": {
				"self": {"href": "/authors/8"}
			}
		}`),
		"/books": []byte(`{
			"total": 1,
			"_links": {
				"self": {"href": "/books"}
			},
			"_embedded": {
				"items": [
					{
						"title": "Leviathan Wakes",
						"published": "2011-06-15",
						"_links": {
							"self": {"href": "/books/1"},
							"author": {"href": "/authors/7"},
							"comments": {"href": "/books/1/comments"}
						}
					}
				]
			}
		}`),
	}
}
