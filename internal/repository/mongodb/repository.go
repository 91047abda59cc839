package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/packweigh/internal/domain/models"
)

// Repository defines the interface for committed entry storage.
type Repository interface {
	SaveEntry(ctx context.Context, sessionID string, entry models.Entry) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Entry, error)
}

// EntryDocument is the stored shape of a committed entry.
type EntryDocument struct {
	SessionID    string    `bson:"session_id"`
	Barcode      string    `bson:"barcode"`
	DrugName     string    `bson:"drug_name"`
	WeightBox    float64   `bson:"weight_box"`
	WeightStrip  float64   `bson:"weight_strip"`
	WeightTablet float64   `bson:"weight_tablet"`
	BulkQuantity int       `bson:"bulk_quantity"`
	CommittedAt  time.Time `bson:"committed_at"`
}

// NewEntryDocument maps a committed entry to its document.
func NewEntryDocument(sessionID string, e models.Entry) EntryDocument {
	return EntryDocument{
		SessionID:    sessionID,
		Barcode:      e.Barcode,
		DrugName:     e.DrugName,
		WeightBox:    e.WeightBox,
		WeightStrip:  e.WeightStrip,
		WeightTablet: e.WeightTablet,
		BulkQuantity: e.BulkQuantity,
		CommittedAt:  e.CommittedAt.UTC(),
	}
}

// Entry maps the document back to a committed entry.
func (d EntryDocument) Entry() models.Entry {
	return models.Entry{
		Barcode:      d.Barcode,
		DrugName:     d.DrugName,
		WeightBox:    d.WeightBox,
		WeightStrip:  d.WeightStrip,
		WeightTablet: d.WeightTablet,
		BulkQuantity: d.BulkQuantity,
		CommittedAt:  d.CommittedAt,
	}
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri, dbName, collName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: collName,
	}

	index := mongo.IndexModel{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "committed_at", Value: 1}}}
	if _, err := r.collection().Indexes().CreateOne(ctx, index); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create entries index: %w", err)
	}

	return r, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Name identifies the mirror in logs and responses.
func (r *MongoDBRepository) Name() string {
	return "mongodb"
}

// SaveEntry stores a committed entry.
func (r *MongoDBRepository) SaveEntry(ctx context.Context, sessionID string, entry models.Entry) error {
	_, err := r.collection().InsertOne(ctx, NewEntryDocument(sessionID, entry))
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// ListBySession returns the entries committed by a session in commit order.
func (r *MongoDBRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "committed_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []EntryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	out := make([]models.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Entry())
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
