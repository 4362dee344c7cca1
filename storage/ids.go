package storage

import (
	"github.com/google/uuid"

	"todolist/domain"
)

// newID returns a UUIDv7 string. Version 7 UUIDs sort in creation order,
// which keeps table rows and Redis hash fields in insertion order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func assignIDs(list *domain.List) {
	if list.ID == "" {
		list.ID = newID()
	}
	for i := range list.Items {
		if list.Items[i].ID == "" {
			list.Items[i].ID = newID()
		}
	}
}

func withoutItem(items []domain.Item, id string) ([]domain.Item, bool) {
	kept := make([]domain.Item, 0, len(items))
	removed := false
	for _, it := range items {
		if !removed && it.ID == id {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	return kept, removed
}
