package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/propnest/marketplace/internal/core/domain"
)

const collectionPaymentEvents = "payment_events"

// PaymentEventRepository persists the payment callback audit trail.
type PaymentEventRepository struct {
	db *mongo.Database
}

// NewPaymentEventRepository creates a new PaymentEventRepository.
func NewPaymentEventRepository(db *mongo.Database) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// InsertEvent persists an event to the payment_events audit collection.
func (r *PaymentEventRepository) InsertEvent(ctx context.Context, event *domain.PaymentEvent) error {
	_, err := r.db.Collection(collectionPaymentEvents).InsertOne(ctx, event)
	return err
}
