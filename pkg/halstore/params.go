package halstore

import (
	"fmt"
	"net/url"
	"strings"
)

// RequestDecoratorFunc appends query parameters to a collection request.
type RequestDecoratorFunc func([]string) []string

func Filter(name, value string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("%s=%s", url.QueryEscape(name), url.QueryEscape(value)))
	}
}

func Limit(count uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("limit=%d", count))
	}
}

func Offset(index uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("offset=%d", index))
	}
}

func Page(number, size uint64) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("page=%d&pageSize=%d", number, size))
	}
}

func SortBy(fields ...string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("sort=%s", strings.Join(fields, ",")))
	}
}

// IDs restricts a collection request to the given identifiers.
func IDs(ids []string) RequestDecoratorFunc {
	return func(params []string) []string {
		escaped := make([]string, len(ids))
		for idx, id := range ids {
			escaped[idx] = url.QueryEscape(id)
		}
		return append(params, fmt.Sprintf("id=%s", strings.Join(escaped, ",")))
	}
}
