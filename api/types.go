package api

import (
	"context"

	"todolist/domain"
)

// Lists abstracts the list operations used by handlers.
type Lists interface {
	DefaultList(ctx context.Context) ([]domain.Item, error)
	SeedDefaultList(ctx context.Context) error
	Resolve(ctx context.Context, name string) (domain.List, error)
	AddItem(ctx context.Context, listName, text string) error
	DeleteItem(ctx context.Context, listName, itemID string) error
}

// listView is the data passed to the "list" template.
type listView struct {
	ListTitle string
	Items     []domain.Item
}
