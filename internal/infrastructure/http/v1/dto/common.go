// Package dto provides the response shapes of the query API.
package dto

// ListResponse wraps a list with its length.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewList builds a ListResponse; a nil slice renders as [].
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
