package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/shared"
)

const (
	// MovementCollectionName is the name of the movement journal collection
	MovementCollectionName = "inventory_movements"
)

// MovementRepository implements the journal.Repository interface for MongoDB
type MovementRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewMovementRepository(logger *slog.Logger, db *mongo.Database) *MovementRepository {
	return &MovementRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event index Record relies on and the
// index the trend aggregation scans
func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(MovementCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "organization_role", Value: 1},
				{Key: "occurred_at", Value: -1},
			},
		},
	})
	if err != nil {
		r.logger.Error("Failed to create movement indexes", "error", err)
		return fmt.Errorf("failed to create movement indexes: %w", err)
	}
	return nil
}

// Record projects a movement. Replaying the same event yields
// ErrDuplicateMovement so the outbox poller can treat it as done.
func (r *MovementRepository) Record(ctx context.Context, movement *journal.Movement) error {
	collection := r.db.Collection(MovementCollectionName)

	_, err := collection.InsertOne(ctx, movement)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateMovement{EventID: movement.EventID}
		}
		r.logger.Error("Failed to record movement",
			"event_id", movement.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to record movement: %w", err)
	}

	return nil
}

func (r *MovementRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*journal.Movement, error) {
	collection := r.db.Collection(MovementCollectionName)

	var movement journal.Movement
	err := collection.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&movement)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrMovementNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get movement",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}

	return &movement, nil
}

// ListByOrganization returns the organization's movements, most recent first
func (r *MovementRepository) ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*journal.Movement, error) {
	collection := r.db.Collection(MovementCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "recorded_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, orgFilter(org), opts)
	if err != nil {
		r.logger.Error("Failed to list movements",
			"organization_id", org.ID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer cursor.Close(ctx)

	movements := make([]*journal.Movement, 0)
	if err := cursor.All(ctx, &movements); err != nil {
		r.logger.Error("Failed to decode movements",
			"organization_id", org.ID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode movements: %w", err)
	}

	return movements, nil
}

func (r *MovementRepository) CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error) {
	count, err := r.db.Collection(MovementCollectionName).CountDocuments(ctx, orgFilter(org))
	if err != nil {
		r.logger.Error("Failed to count movements",
			"organization_id", org.ID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return count, nil
}

// Trend buckets donations received and units issued in [from, to). Only
// periods with movements are returned; journal.FillTrend pads the rest.
func (r *MovementRepository) Trend(ctx context.Context, org inventory.Organization, from, to time.Time, g journal.Granularity) ([]journal.TrendPoint, error) {
	collection := r.db.Collection(MovementCollectionName)

	cursor, err := collection.Aggregate(ctx, trendPipeline(org, from, to, g))
	if err != nil {
		r.logger.Error("Failed to aggregate movement trend",
			"organization_id", org.ID.String(),
			"granularity", string(g),
			"error", err)
		return nil, fmt.Errorf("failed to aggregate movement trend: %w", err)
	}
	defer cursor.Close(ctx)

	points := make([]journal.TrendPoint, 0)
	if err := cursor.All(ctx, &points); err != nil {
		r.logger.Error("Failed to decode movement trend", "error", err)
		return nil, fmt.Errorf("failed to decode movement trend: %w", err)
	}

	return points, nil
}

func orgFilter(org inventory.Organization) bson.M {
	return bson.M{
		"organization_id":   org.ID,
		"organization_role": org.Role,
	}
}

func trendPipeline(org inventory.Organization, from, to time.Time, g journal.Granularity) mongo.Pipeline {
	format := "%Y-%m-%d"
	if g == journal.GranularityMonth {
		format = "%Y-%m"
	}

	match := orgFilter(org)
	match["occurred_at"] = bson.M{"$gte": from, "$lt": to}

	donation := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$kind", shared.MovementKindReceived}},
		bson.M{"$eq": bson.A{"$source_type", inventory.SourceDonation}},
	}}
	issued := bson.M{"$eq": bson.A{"$kind", shared.MovementKindIssued}}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$dateToString": bson.M{
				"format":   format,
				"date":     "$occurred_at",
				"timezone": "UTC",
			}}},
			{Key: "donations", Value: bson.M{"$sum": bson.M{"$cond": bson.A{donation, "$units", 0}}}},
			{Key: "usage", Value: bson.M{"$sum": bson.M{"$cond": bson.A{issued, "$units", 0}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
