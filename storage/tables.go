package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"todolist/domain"
)

const (
	itemsPartition = "items"
	listsPartition = "lists"

	// Entity group transactions accept at most 100 operations.
	maxBatchSize = 100
)

// Tables stores items and lists in Azure Table Storage.
type Tables struct {
	itemTable *aztables.Client
	listTable *aztables.Client
}

// NewTables creates a Tables instance from the given connection string.
func NewTables(connStr, itemsTable, listsTable string) (*Tables, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &Tables{itemTable: svc.NewClient(itemsTable), listTable: svc.NewClient(listsTable)}, nil
}

type itemEntity struct {
	aztables.Entity
	Name string `json:"Name"`
}

type listEntity struct {
	aztables.Entity
	Name string `json:"Name"`
	// Items holds the nested items as a JSON array; table properties cannot nest.
	Items string `json:"Items"`
}

func decodeItemEntity(data []byte) (domain.Item, error) {
	var ent itemEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Item{}, err
	}
	return domain.Item{ID: ent.RowKey, Name: ent.Name}, nil
}

func encodeItemEntity(it domain.Item) ([]byte, error) {
	return json.Marshal(itemEntity{
		Entity: aztables.Entity{PartitionKey: itemsPartition, RowKey: it.ID},
		Name:   it.Name,
	})
}

func decodeListEntity(data []byte) (domain.List, error) {
	var ent listEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.List{}, err
	}
	list := domain.List{ID: ent.RowKey, Name: ent.Name, Items: []domain.Item{}}
	if ent.Items != "" {
		if err := sonic.UnmarshalString(ent.Items, &list.Items); err != nil {
			return domain.List{}, err
		}
	}
	return list, nil
}

func encodeListEntity(list domain.List) ([]byte, error) {
	items := list.Items
	if items == nil {
		items = []domain.Item{}
	}
	nested, err := sonic.MarshalString(items)
	if err != nil {
		return nil, err
	}
	return json.Marshal(listEntity{
		Entity: aztables.Entity{PartitionKey: listsPartition, RowKey: list.ID},
		Name:   list.Name,
		Items:  nested,
	})
}

func quoteFilterValue(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// Items retrieves the flat item collection. Row keys sort in insertion order.
func (s *Tables) Items(ctx context.Context) ([]domain.Item, error) {
	filter := "PartitionKey eq " + quoteFilterValue(itemsPartition)
	pager := s.itemTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	items := []domain.Item{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			it, err := decodeItemEntity(e)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}
	return items, nil
}

// InsertItems adds the items to the flat collection in batches.
func (s *Tables) InsertItems(ctx context.Context, items []domain.Item) error {
	actions := make([]aztables.TransactionAction, 0, len(items))
	for _, it := range items {
		it.ID = newID()
		payload, err := encodeItemEntity(it)
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{ActionType: aztables.TransactionTypeAdd, Entity: payload})
	}
	for len(actions) > 0 {
		n := min(len(actions), maxBatchSize)
		if _, err := s.itemTable.SubmitTransaction(ctx, actions[:n], nil); err != nil {
			return err
		}
		actions = actions[n:]
	}
	return nil
}

// DeleteItem removes an item from the flat collection.
func (s *Tables) DeleteItem(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	if _, err := s.itemTable.DeleteEntity(ctx, itemsPartition, id, nil); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindList returns the first list stored under name, or nil when none exists.
func (s *Tables) FindList(ctx context.Context, name string) (*domain.List, error) {
	filter := "PartitionKey eq " + quoteFilterValue(listsPartition) + " and Name eq " + quoteFilterValue(name)
	top := int32(1)
	pager := s.listTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(resp.Entities) == 0 {
			continue
		}
		list, err := decodeListEntity(resp.Entities[0])
		if err != nil {
			return nil, err
		}
		return &list, nil
	}
	return nil, nil
}

// SaveList creates or replaces the list entity.
func (s *Tables) SaveList(ctx context.Context, list *domain.List) error {
	assignIDs(list)
	payload, err := encodeListEntity(*list)
	if err != nil {
		return err
	}
	_, err = s.listTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// RemoveListItem rewrites the named list without the given item.
func (s *Tables) RemoveListItem(ctx context.Context, listName, itemID string) (bool, error) {
	list, err := s.FindList(ctx, listName)
	if err != nil || list == nil {
		return false, err
	}
	kept, removed := withoutItem(list.Items, itemID)
	if !removed {
		return false, nil
	}
	list.Items = kept
	payload, err := encodeListEntity(*list)
	if err != nil {
		return false, err
	}
	et := azcore.ETagAny
	if _, err := s.listTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace}); err != nil {
		return false, err
	}
	return true, nil
}
