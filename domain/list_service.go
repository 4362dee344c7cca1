package domain

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrListNotFound is returned when a mutation addresses a custom list that does not exist.
var ErrListNotFound = errors.New("list not found")

// ListStorage defines the persistence operations behind the default and custom lists.
type ListStorage interface {
	// Items returns the flat item collection in insertion order.
	Items(ctx context.Context) ([]Item, error)
	// InsertItems adds items to the flat collection, assigning IDs.
	InsertItems(ctx context.Context, items []Item) error
	// DeleteItem removes an item from the flat collection and reports whether it existed.
	DeleteItem(ctx context.Context, id string) (bool, error)
	// FindList returns the list with the given name, or nil when absent.
	FindList(ctx context.Context, name string) (*List, error)
	// SaveList inserts the list when it has no ID and replaces it otherwise.
	// IDs are assigned in place to the list and to any item lacking one.
	SaveList(ctx context.Context, list *List) error
	// RemoveListItem pulls an item out of the named list and reports whether it existed.
	RemoveListItem(ctx context.Context, listName, itemID string) (bool, error)
}

// ListService resolves lists and applies item changes.
type ListService struct {
	st  ListStorage
	log *log.Logger
}

func NewListService(st ListStorage, logger *log.Logger) ListService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return ListService{st: st, log: logger}
}

// DefaultList returns the items of the "Today" list.
func (s ListService) DefaultList(ctx context.Context) ([]Item, error) {
	items, err := s.st.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("list default items: %w", err)
	}
	return items, nil
}

// SeedDefaultList inserts the default items into the flat collection.
func (s ListService) SeedDefaultList(ctx context.Context) error {
	if err := s.st.InsertItems(ctx, DefaultItems()); err != nil {
		return fmt.Errorf("seed default items: %w", err)
	}
	s.log.Info("saved default items")
	return nil
}

// Resolve finds the custom list with the normalized name, creating it with
// the default items when absent. Concurrent first requests for the same name
// may create duplicate lists; no uniqueness lock is taken.
func (s ListService) Resolve(ctx context.Context, name string) (List, error) {
	name = NormalizeListName(name)
	found, err := s.st.FindList(ctx, name)
	if err != nil {
		return List{}, fmt.Errorf("find list %q: %w", name, err)
	}
	if found != nil {
		return *found, nil
	}
	list := List{Name: name, Items: DefaultItems()}
	if err := s.st.SaveList(ctx, &list); err != nil {
		s.log.WithError(err).WithField("list", name).Error("failed to create list")
		return list, nil
	}
	s.log.WithField("list", name).Debug("created list")
	return list, nil
}

// AddItem appends a new item named text to the list.
func (s ListService) AddItem(ctx context.Context, listName, text string) error {
	item := Item{Name: text}
	if IsDefaultList(listName) {
		if err := s.st.InsertItems(ctx, []Item{item}); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	}
	name := NormalizeListName(listName)
	list, err := s.st.FindList(ctx, name)
	if err != nil {
		return fmt.Errorf("find list %q: %w", name, err)
	}
	if list == nil {
		return fmt.Errorf("add item to %q: %w", name, ErrListNotFound)
	}
	list.Items = append(list.Items, item)
	if err := s.st.SaveList(ctx, list); err != nil {
		return fmt.Errorf("save list %q: %w", name, err)
	}
	return nil
}

// DeleteItem removes the item with the given ID from the list. Unknown IDs are a no-op.
func (s ListService) DeleteItem(ctx context.Context, listName, itemID string) error {
	if IsDefaultList(listName) {
		removed, err := s.st.DeleteItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("delete item %q: %w", itemID, err)
		}
		if removed {
			s.log.WithField("item", itemID).Info("deleted checked item")
		}
		return nil
	}
	name := NormalizeListName(listName)
	removed, err := s.st.RemoveListItem(ctx, name, itemID)
	if err != nil {
		return fmt.Errorf("remove item %q from %q: %w", itemID, name, err)
	}
	if removed {
		s.log.WithFields(log.Fields{"item": itemID, "list": name}).Info("deleted checked item")
	}
	return nil
}
