package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
)

const (
	// DecisionCollectionName is the name of the admission decision collection
	DecisionCollectionName = "admission_decisions"
)

// DecisionRepository implements the admission.Repository interface for MongoDB
type DecisionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewDecisionRepository(logger *slog.Logger, db *mongo.Database) *DecisionRepository {
	return &DecisionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DecisionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(DecisionCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "organization_role", Value: 1},
				{Key: "idempotency_key", Value: 1},
			},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create decision indexes", "error", err)
		return fmt.Errorf("failed to create decision indexes: %w", err)
	}
	return nil
}

// Save upserts the decision keyed by its request id
func (r *DecisionRepository) Save(ctx context.Context, decision *admission.Decision) error {
	collection := r.db.Collection(DecisionCollectionName)

	_, err := collection.ReplaceOne(ctx,
		bson.M{"request_id": decision.RequestID},
		decision,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to save admission decision",
			"request_id", decision.RequestID.String(),
			"status", string(decision.Status),
			"error", err)
		return fmt.Errorf("failed to save admission decision: %w", err)
	}

	return nil
}

func (r *DecisionRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*admission.Decision, error) {
	collection := r.db.Collection(DecisionCollectionName)

	var decision admission.Decision
	err := collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&decision)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, admission.ErrDecisionNotFound{RequestID: requestID}
		}
		r.logger.Error("Failed to get admission decision",
			"request_id", requestID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get admission decision: %w", err)
	}

	return &decision, nil
}

// GetByIdempotencyKey returns nil when no decision carries the key, so
// callers can go ahead and process the request
func (r *DecisionRepository) GetByIdempotencyKey(ctx context.Context, org inventory.Organization, key string) (*admission.Decision, error) {
	if key == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	collection := r.db.Collection(DecisionCollectionName)

	filter := orgFilter(org)
	filter["idempotency_key"] = key

	var decision admission.Decision
	err := collection.FindOne(ctx, filter).Decode(&decision)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to get admission decision by idempotency key",
			"idempotency_key", key,
			"error", err)
		return nil, fmt.Errorf("failed to get admission decision by idempotency key: %w", err)
	}

	return &decision, nil
}

func (r *DecisionRepository) ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*admission.Decision, error) {
	collection := r.db.Collection(DecisionCollectionName)

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, orgFilter(org), opts)
	if err != nil {
		r.logger.Error("Failed to list admission decisions",
			"organization_id", org.ID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list admission decisions: %w", err)
	}
	defer cursor.Close(ctx)

	decisions := make([]*admission.Decision, 0)
	if err := cursor.All(ctx, &decisions); err != nil {
		r.logger.Error("Failed to decode admission decisions",
			"organization_id", org.ID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode admission decisions: %w", err)
	}

	return decisions, nil
}

func (r *DecisionRepository) CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error) {
	collection := r.db.Collection(DecisionCollectionName)

	count, err := collection.CountDocuments(ctx, orgFilter(org))
	if err != nil {
		r.logger.Error("Failed to count admission decisions",
			"organization_id", org.ID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count admission decisions: %w", err)
	}

	return count, nil
}
