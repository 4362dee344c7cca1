package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todolist/domain"
)

// Mongo stores items and lists as MongoDB documents.
type Mongo struct {
	client *mongo.Client
	items  *mongo.Collection
	lists  *mongo.Collection
}

// NewMongo connects to uri and uses the items and lists collections of database.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	db := client.Database(database)
	return &Mongo{client: client, items: db.Collection("items"), lists: db.Collection("lists")}, nil
}

// Close disconnects the underlying client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type itemDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

type listDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Items []itemDocument     `bson:"items"`
}

func fromItemDocument(doc itemDocument) domain.Item {
	return domain.Item{ID: doc.ID.Hex(), Name: doc.Name}
}

func toItemDocument(it domain.Item) (itemDocument, error) {
	doc := itemDocument{Name: it.Name}
	if it.ID == "" {
		doc.ID = primitive.NewObjectID()
		return doc, nil
	}
	oid, err := primitive.ObjectIDFromHex(it.ID)
	if err != nil {
		return itemDocument{}, err
	}
	doc.ID = oid
	return doc, nil
}

func fromListDocument(doc listDocument) domain.List {
	list := domain.List{ID: doc.ID.Hex(), Name: doc.Name, Items: make([]domain.Item, 0, len(doc.Items))}
	for _, it := range doc.Items {
		list.Items = append(list.Items, fromItemDocument(it))
	}
	return list
}

func toListDocument(list domain.List) (listDocument, error) {
	doc := listDocument{Name: list.Name, Items: make([]itemDocument, 0, len(list.Items))}
	if list.ID == "" {
		doc.ID = primitive.NewObjectID()
	} else {
		oid, err := primitive.ObjectIDFromHex(list.ID)
		if err != nil {
			return listDocument{}, err
		}
		doc.ID = oid
	}
	for _, it := range list.Items {
		itDoc, err := toItemDocument(it)
		if err != nil {
			return listDocument{}, err
		}
		doc.Items = append(doc.Items, itDoc)
	}
	return doc, nil
}

// Items retrieves the flat item collection ordered by ObjectID, which follows insertion order.
func (s *Mongo) Items(ctx context.Context) ([]domain.Item, error) {
	cur, err := s.items.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromItemDocument(doc))
	}
	return items, nil
}

// InsertItems adds the items to the flat collection.
func (s *Mongo) InsertItems(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for _, it := range items {
		it.ID = ""
		doc, err := toItemDocument(it)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	_, err := s.items.InsertMany(ctx, docs)
	return err
}

// DeleteItem removes an item from the flat collection. Malformed IDs match nothing.
func (s *Mongo) DeleteItem(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.items.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// FindList returns the first list document named name, or nil when none exists.
func (s *Mongo) FindList(ctx context.Context, name string) (*domain.List, error) {
	var doc listDocument
	if err := s.lists.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	list := fromListDocument(doc)
	return &list, nil
}

// SaveList upserts the list document by ID.
func (s *Mongo) SaveList(ctx context.Context, list *domain.List) error {
	doc, err := toListDocument(*list)
	if err != nil {
		return err
	}
	if _, err := s.lists.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return err
	}
	*list = fromListDocument(doc)
	return nil
}

// RemoveListItem pulls the item out of the named list in a single update.
func (s *Mongo) RemoveListItem(ctx context.Context, listName, itemID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return false, nil
	}
	res, err := s.lists.UpdateOne(ctx,
		bson.M{"name": listName},
		bson.M{"$pull": bson.M{"items": bson.M{"_id": oid}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
