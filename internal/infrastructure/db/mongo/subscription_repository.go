package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/propnest/marketplace/internal/core/domain"
)

const collectionSubscriptions = "subscriptions"

// SubscriptionRepository implements ports.SubscriptionRepository using MongoDB.
type SubscriptionRepository struct {
	col *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{col: db.Collection(collectionSubscriptions)}
}

// Activate inserts the subscription keyed by order id. An existing
// subscription for the order is left untouched.
func (r *SubscriptionRepository) Activate(ctx context.Context, s *domain.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": s.OrderID},
		bson.M{"$setOnInsert": s},
		options.Update().SetUpsert(true),
	)
	return err
}
