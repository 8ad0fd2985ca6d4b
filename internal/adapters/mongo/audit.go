package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditLogger appends booking/lock transition records. Entries are
// write-once; failures are logged and never fail the transition that
// produced them.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_log"),
		logger: logger,
	}
}

type auditDoc struct {
	ID            uuid.UUID `bson:"_id"`
	BookingID     uuid.UUID `bson:"booking_id,omitempty"`
	EventID       uuid.UUID `bson:"event_id"`
	LockID        uuid.UUID `bson:"lock_id,omitempty"`
	FromStatus    string    `bson:"from_status,omitempty"`
	ToStatus      string    `bson:"to_status"`
	Action        string    `bson:"action"`
	CorrelationID string    `bson:"correlation_id,omitempty"`
	Timestamp     time.Time `bson:"timestamp"`
	Metadata      bson.M    `bson:"metadata,omitempty"`
}

func (a *AuditLogger) Record(ctx context.Context, entry domain.AuditEntry) {
	doc := auditDoc{
		ID:            uuid.New(),
		BookingID:     entry.BookingID,
		EventID:       entry.EventID,
		LockID:        entry.LockID,
		FromStatus:    entry.FromStatus,
		ToStatus:      entry.ToStatus,
		Action:        entry.Action,
		CorrelationID: entry.CorrelationID,
		Timestamp:     time.Now(),
		Metadata:      bson.M(entry.Metadata),
	}
	if _, err := a.coll.InsertOne(ctx, doc); err != nil {
		a.logger.WithError(err).Error("failed to insert audit record")
	}
}
