package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment-transactions-server/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// transactionDoc is the collection shape. Amounts are kept as Decimal128 so
// the server can aggregate them without losing the fixed scale.
type transactionDoc struct {
	ID            string               `bson:"_id"`
	MerchantID    string               `bson:"merchant_id"`
	CustomerID    string               `bson:"customer_id"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Currency      string               `bson:"currency"`
	PaymentMethod string               `bson:"payment_method"`
	Description   *string              `bson:"description,omitempty"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     *time.Time           `bson:"updated_at,omitempty"`
}

func NewMongoStore(coll *mongo.Collection, timeout time.Duration) *MongoStore {
	return &MongoStore{coll: coll, timeout: timeout}
}

// EnsureIndexes creates the query indexes used by the field lookups. Runs
// once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "merchant_id", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure transaction indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := toDoc(tx)
	if err != nil {
		return nil, err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": tx.ID}, doc, opts); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	return tx, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc transactionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return fromDoc(doc)
}

func (s *MongoStore) FindAll(ctx context.Context, req PageRequest) (*Page, error) {
	return s.findPage(ctx, bson.M{}, req)
}

func (s *MongoStore) FindByMerchant(ctx context.Context, merchantID string) ([]models.Transaction, error) {
	return s.findList(ctx, bson.M{"merchant_id": merchantID})
}

func (s *MongoStore) FindByMerchantPage(ctx context.Context, merchantID string, req PageRequest) (*Page, error) {
	return s.findPage(ctx, bson.M{"merchant_id": merchantID}, req)
}

func (s *MongoStore) FindByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return s.findList(ctx, bson.M{"customer_id": customerID})
}

func (s *MongoStore) FindByCustomerPage(ctx context.Context, customerID string, req PageRequest) (*Page, error) {
	return s.findPage(ctx, bson.M{"customer_id": customerID}, req)
}

func (s *MongoStore) FindByStatus(ctx context.Context, status models.Status) ([]models.Transaction, error) {
	return s.findList(ctx, bson.M{"status": string(status)})
}

func (s *MongoStore) FindByStatusPage(ctx context.Context, status models.Status, req PageRequest) (*Page, error) {
	return s.findPage(ctx, bson.M{"status": string(status)}, req)
}

func (s *MongoStore) FindByCreatedAtRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.findList(ctx, bson.M{"created_at": bson.M{"$gte": start, "$lte": end}})
}

func (s *MongoStore) SumAmount(ctx context.Context, merchantID string, status models.Status) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"merchant_id": merchantID, "status": string(status)}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return decimal.Zero, fmt.Errorf("sum amount: %w", err)
		}
		return decimal.Zero, nil
	}
	if err := cursor.Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode amount sum: %w", err)
	}

	total, err := decimal.NewFromString(result.Total.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount sum: %w", err)
	}
	return total, nil
}

func (s *MongoStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	return count > 0, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) findList(ctx context.Context, filter bson.M) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeTransactions(ctx, cursor)
}

func (s *MongoStore) findPage(ctx context.Context, filter bson.M, req PageRequest) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req = req.Normalize()
	order := 1
	if req.Descending() {
		order = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: mapSortField(req.SortBy), Value: order}}).
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.Size))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("page transactions: %w", err)
	}
	defer cursor.Close(ctx)

	content, err := decodeTransactions(ctx, cursor)
	if err != nil {
		return nil, err
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	return NewPage(content, req, total), nil
}

func decodeTransactions(ctx context.Context, cursor *mongo.Cursor) ([]models.Transaction, error) {
	var results []models.Transaction
	for cursor.Next(ctx) {
		var doc transactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		tx, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		results = append(results, *tx)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return results, nil
}

func toDoc(tx *models.Transaction) (transactionDoc, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return transactionDoc{}, fmt.Errorf("encode amount: %w", err)
	}
	return transactionDoc{
		ID:            tx.ID,
		MerchantID:    tx.MerchantID,
		CustomerID:    tx.CustomerID,
		Amount:        amount,
		Currency:      tx.Currency,
		PaymentMethod: tx.PaymentMethod,
		Description:   tx.Description,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}, nil
}

func fromDoc(doc transactionDoc) (*models.Transaction, error) {
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	return &models.Transaction{
		ID:            doc.ID,
		MerchantID:    doc.MerchantID,
		CustomerID:    doc.CustomerID,
		Amount:        amount,
		Currency:      doc.Currency,
		PaymentMethod: doc.PaymentMethod,
		Description:   doc.Description,
		Status:        models.Status(doc.Status),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

func mapSortField(sortBy string) string {
	switch strings.ToLower(sortBy) {
	case "amount":
		return "amount"
	case "merchantid":
		return "merchant_id"
	case "customerid":
		return "customer_id"
	case "status":
		return "status"
	case "updatedat":
		return "updated_at"
	default:
		return "created_at"
	}
}
