package favoritesrepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// MongoRepository persists favorites in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository over coll.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes creates the unique identity index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cityKey", Value: 1}, {Key: "regionKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("favorites_identity"),
	})
	if err != nil {
		return fmt.Errorf("create favorites index: %w", err)
	}
	return nil
}

// List returns entries in insertion order.
func (r *MongoRepository) List(ctx context.Context) ([]favorites.Entry, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := []favorites.Entry{}
	for cur.Next(ctx) {
		var doc favoriteDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite: %w", err)
		}
		entries = append(entries, doc.entry())
	}
	return entries, cur.Err()
}

// Insert adds the entry; the unique index rejects a second writer.
func (r *MongoRepository) Insert(ctx context.Context, entry favorites.Entry) error {
	_, err := r.coll.InsertOne(ctx, newFavoriteDocument(entry))
	if mongo.IsDuplicateKeyError(err) {
		return favorites.ErrDuplicate
	}
	return err
}

// Delete removes the entry with the given identity.
func (r *MongoRepository) Delete(ctx context.Context, key favorites.Key) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"cityKey": key.City, "regionKey": key.Region})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return favorites.ErrNotFound
	}
	return nil
}

type favoriteDocument struct {
	CityName    string               `bson:"cityName"`
	Region      string               `bson:"region"`
	CityKey     string               `bson:"cityKey"`
	RegionKey   string               `bson:"regionKey"`
	Coordinates *geo.Coordinates     `bson:"coordinates,omitempty"`
	Data        []forecast.DayRecord `bson:"data"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

func newFavoriteDocument(entry favorites.Entry) favoriteDocument {
	key := entry.Key()
	return favoriteDocument{
		CityName:    entry.CityName,
		Region:      entry.Region,
		CityKey:     key.City,
		RegionKey:   key.Region,
		Coordinates: entry.Coordinates,
		Data:        recordsOrEmpty(entry.Data),
		CreatedAt:   time.Now().UTC(),
	}
}

func (d favoriteDocument) entry() favorites.Entry {
	return favorites.Entry{
		CityName:    d.CityName,
		Region:      d.Region,
		Coordinates: d.Coordinates,
		Data:        d.Data,
	}
}

var _ favorites.Repository = (*MongoRepository)(nil)
