package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
)

const collectionOrders = "payment_orders"

// OrderRepository implements ports.OrderRepository using MongoDB. Status
// changes are single conditional updates filtered on the allowed source
// statuses, which keeps transitions monotonic under concurrent callbacks.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

// Create inserts a new order document. An id already on file is
// domain.ErrOrderExists.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrOrderExists
		}
		return err
	}
	return nil
}

// FindByID retrieves an order by gateway order id.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByReceipt retrieves the newest order for receipt that has not failed.
func (r *OrderRepository) FindByReceipt(ctx context.Context, receipt string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"receipt": receipt, "status": bson.M{"$ne": domain.OrderFailed}}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var o domain.Order
	if err := r.col.FindOne(ctx, filter, opts).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, orderID, paymentID string) (*domain.Order, error) {
	return r.transition(ctx, orderID, domain.OrderPaid, nil, bson.M{"payment_id": paymentID})
}

// MarkVerified is the only write that produces the verified status. It only
// matches a paid order carrying the proof's payment id.
func (r *OrderRepository) MarkVerified(ctx context.Context, proof payment.Proof) (*domain.Order, error) {
	if !proof.Valid() {
		return nil, domain.ErrSignatureInvalid
	}
	return r.transition(ctx, proof.OrderID(), domain.OrderVerified, verifiedMatch(proof.PaymentID()), nil)
}

func (r *OrderRepository) MarkFailed(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.transition(ctx, orderID, domain.OrderFailed, nil, nil)
}

func verifiedMatch(paymentID string) bson.M {
	return bson.M{"payment_id": paymentID}
}

// transitionFilter matches orderID in a source status of to, plus any
// extra field conditions.
func transitionFilter(orderID string, to domain.OrderStatus, match bson.M) bson.M {
	filter := bson.M{
		"_id":    orderID,
		"status": bson.M{"$in": domain.SourcesFor(to)},
	}
	for k, v := range match {
		filter[k] = v
	}
	return filter
}

func (r *OrderRepository) transition(ctx context.Context, orderID string, to domain.OrderStatus, match, extra bson.M) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		set[k] = v
	}
	filter := transitionFilter(orderID, to, match)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o domain.Order
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&o)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Nothing matched: either the order does not exist, or it is no longer
	// in a source status or carries another payment id.
	n, countErr := r.col.CountDocuments(ctx, bson.M{"_id": orderID})
	if countErr != nil {
		return nil, countErr
	}
	if n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return nil, domain.ErrInvalidTransition
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "receipt", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
