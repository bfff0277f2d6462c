package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionServices = "detected_services"

// ServiceAdapter implements out.ServiceStore using MongoDB.
// One document per (user_id, domain); a later scan refreshes the document.
type ServiceAdapter struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewServiceAdapter creates a new MongoDB service adapter.
func NewServiceAdapter(db *mongo.Database) *ServiceAdapter {
	return &ServiceAdapter{
		collection: db.Collection(collectionServices),
		now:        time.Now,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ServiceAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "domain", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// serviceDocument is the stored form of a ServiceRecord.
type serviceDocument struct {
	domain.ServiceRecord `bson:",inline"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

// SaveServices upserts every record in one bulk write.
func (a *ServiceAdapter) SaveServices(ctx context.Context, userID string, records []domain.ServiceRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := a.now()
	models := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		rec.UserID = userID
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"user_id": userID, "domain": rec.Domain}).
			SetReplacement(serviceDocument{ServiceRecord: rec, UpdatedAt: now}).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := a.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to save services: %w", err)
	}
	return nil
}

// ListServices returns a user's services, most confident first.
func (a *ServiceAdapter) ListServices(ctx context.Context, userID string) ([]domain.ServiceRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "confidence", Value: -1}, {Key: "domain", Value: 1}})

	cursor, err := a.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []serviceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}

	records := make([]domain.ServiceRecord, len(docs))
	for i, d := range docs {
		records[i] = d.ServiceRecord
	}
	return records, nil
}

var _ out.ServiceStore = (*ServiceAdapter)(nil)
