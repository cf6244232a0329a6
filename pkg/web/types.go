package web

import "github.com/dukex/roster/pkg/models"

func listOf[T any](items []T) models.ListResponse[T] {
	if items == nil {
		items = []T{}
	}

	return models.ListResponse[T]{Data: items}
}
