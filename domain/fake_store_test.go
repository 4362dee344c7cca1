package domain

import (
	"context"
	"strconv"
)

type fakeStore struct {
	items []Item
	lists []List
	seq   int

	itemsErr  error
	insertErr error
	findErr   error
	saveErr   error
	deleteErr error

	saves int
}

func (f *fakeStore) nextID() string {
	f.seq++
	return strconv.Itoa(f.seq)
}

func (f *fakeStore) Items(ctx context.Context) ([]Item, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return append([]Item(nil), f.items...), nil
}

func (f *fakeStore) InsertItems(ctx context.Context, items []Item) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, it := range items {
		it.ID = f.nextID()
		f.items = append(f.items, it)
	}
	return nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FindList(ctx context.Context, name string) (*List, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, l := range f.lists {
		if l.Name == name {
			cp := l
			cp.Items = append([]Item(nil), l.Items...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveList(ctx context.Context, list *List) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	for i := range list.Items {
		if list.Items[i].ID == "" {
			list.Items[i].ID = f.nextID()
		}
	}
	stored := *list
	stored.Items = append([]Item(nil), list.Items...)
	if list.ID == "" {
		list.ID = f.nextID()
		stored.ID = list.ID
		f.lists = append(f.lists, stored)
		return nil
	}
	for i := range f.lists {
		if f.lists[i].ID == list.ID {
			f.lists[i] = stored
			return nil
		}
	}
	f.lists = append(f.lists, stored)
	return nil
}

func (f *fakeStore) RemoveListItem(ctx context.Context, listName, itemID string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	for i := range f.lists {
		if f.lists[i].Name != listName {
			continue
		}
		for j, it := range f.lists[i].Items {
			if it.ID == itemID {
				f.lists[i].Items = append(f.lists[i].Items[:j], f.lists[i].Items[j+1:]...)
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func (f *fakeStore) list(name string) *List {
	for i := range f.lists {
		if f.lists[i].Name == name {
			return &f.lists[i]
		}
	}
	return nil
}
