package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository reads event metadata owned by the external
// catalog service. The engine never writes here; its own inventory
// counters live in the transactional store.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("events"),
		logger: logger,
	}
}

type EventDoc struct {
	ID          uuid.UUID `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Venue       string    `bson:"venue"`
	Date        time.Time `bson:"date"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (c *CatalogRepository) GetEvent(ctx context.Context, id uuid.UUID) (*EventDoc, error) {
	var event EventDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
