package storage

import (
	"context"
	"crypto/tls"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"todolist/domain"
)

// Redis stores items and lists as JSON documents in two Redis hashes.
type Redis struct {
	redis  *redis.Client
	prefix string
}

// NewRedis creates a Redis store whose keys start with prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if client == nil {
		panic("storage.NewRedis: client is nil")
	}
	if prefix == "" {
		prefix = "todolist"
	}
	return &Redis{redis: client, prefix: prefix}
}

// ParseRedisOptions accepts either a redis:// URL or an Azure style
// "host:port,password=...,ssl=true" connection string.
func ParseRedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

type itemRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listRecord struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Items []itemRecord `json:"items"`
}

func toListRecord(list domain.List) listRecord {
	rec := listRecord{ID: list.ID, Name: list.Name, Items: make([]itemRecord, 0, len(list.Items))}
	for _, it := range list.Items {
		rec.Items = append(rec.Items, itemRecord(it))
	}
	return rec
}

func fromListRecord(rec listRecord) domain.List {
	list := domain.List{ID: rec.ID, Name: rec.Name, Items: make([]domain.Item, 0, len(rec.Items))}
	for _, it := range rec.Items {
		list.Items = append(list.Items, domain.Item(it))
	}
	return list
}

func (s *Redis) itemsKey() string {
	return s.prefix + ":items"
}

func (s *Redis) listsKey() string {
	return s.prefix + ":lists"
}

// Items retrieves the flat item collection sorted by ID.
func (s *Redis) Items(ctx context.Context) ([]domain.Item, error) {
	fields, err := s.redis.HGetAll(ctx, s.itemsKey()).Result()
	if err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(fields))
	for _, raw := range fields {
		var rec itemRecord
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			return nil, err
		}
		items = append(items, domain.Item(rec))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// InsertItems adds the items to the flat collection with a single HSET.
func (s *Redis) InsertItems(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(items)*2)
	for _, it := range items {
		rec := itemRecord{ID: newID(), Name: it.Name}
		data, err := sonic.MarshalString(rec)
		if err != nil {
			return err
		}
		values = append(values, rec.ID, data)
	}
	return s.redis.HSet(ctx, s.itemsKey(), values...).Err()
}

// DeleteItem removes an item from the flat collection.
func (s *Redis) DeleteItem(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := s.redis.HDel(ctx, s.itemsKey(), id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindList scans the stored lists for name and returns the oldest match.
func (s *Redis) FindList(ctx context.Context, name string) (*domain.List, error) {
	fields, err := s.redis.HGetAll(ctx, s.listsKey()).Result()
	if err != nil {
		return nil, err
	}
	var found *listRecord
	for _, raw := range fields {
		var rec listRecord
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			return nil, err
		}
		if rec.Name != name {
			continue
		}
		if found == nil || rec.ID < found.ID {
			found = &rec
		}
	}
	if found == nil {
		return nil, nil
	}
	list := fromListRecord(*found)
	return &list, nil
}

// SaveList writes the list document under its ID.
func (s *Redis) SaveList(ctx context.Context, list *domain.List) error {
	assignIDs(list)
	data, err := sonic.MarshalString(toListRecord(*list))
	if err != nil {
		return err
	}
	return s.redis.HSet(ctx, s.listsKey(), list.ID, data).Err()
}

// RemoveListItem rewrites the named list without the given item.
func (s *Redis) RemoveListItem(ctx context.Context, listName, itemID string) (bool, error) {
	list, err := s.FindList(ctx, listName)
	if err != nil || list == nil {
		return false, err
	}
	kept, removed := withoutItem(list.Items, itemID)
	if !removed {
		return false, nil
	}
	list.Items = kept
	if err := s.SaveList(ctx, list); err != nil {
		return false, err
	}
	return true, nil
}
