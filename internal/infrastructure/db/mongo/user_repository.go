package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserStore using MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Identifier     string             `bson:"identifier"`
	PasswordHash   string             `bson:"password_hash,omitempty"`
	Provider       string             `bson:"provider"`
	ProviderUserID string             `bson:"provider_user_id,omitempty"`
	CreatedAt      int64              `bson:"created_at"`
	UpdatedAt      int64              `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:             mu.ID.Hex(),
		Identifier:     mu.Identifier,
		PasswordHash:   mu.PasswordHash,
		Provider:       mu.Provider,
		ProviderUserID: mu.ProviderUserID,
		CreatedAt:      unixToTime(mu.CreatedAt),
		UpdatedAt:      unixToTime(mu.UpdatedAt),
	}
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) FindByProviderKey(ctx context.Context, provider, subjectID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"provider": provider, "provider_user_id": subjectID}
	var mu mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by provider key: %w", err)
	}
	return mu.toDomain(), nil
}

// InsertLocal creates a password-backed account. The unique index on
// identifier makes the duplicate check and the insert one atomic step.
func (r *UserRepository) InsertLocal(ctx context.Context, identifier, passwordHash string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoUser{
		Identifier:   identifier,
		PasswordHash: passwordHash,
		Provider:     domain.ProviderLocal,
		CreatedAt:    now.Unix(),
		UpdatedAt:    now.Unix(),
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

// FindOrCreateFederated resolves a provider identity in three steps: the
// provider key is tried first, then an account that already owns the
// identifier gets the key linked onto it, and only when neither exists is
// a new document inserted. The unique indexes arbitrate concurrent logins.
func (r *UserRepository) FindOrCreateFederated(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Returning subject.
	user, err := r.FindByProviderKey(ctx, identity.Provider, identity.SubjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// An existing account holds this identifier, typically a local
	// registration with the same email. Link the provider key onto it
	// instead of tripping over the identifier index.
	user, err = r.linkProviderKey(ctx, identity)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// First login for a brand-new identity.
	now := time.Now().UTC()
	doc := mongoUser{
		Identifier:     identity.Identifier,
		Provider:       identity.Provider,
		ProviderUserID: identity.SubjectID,
		CreatedAt:      now.Unix(),
		UpdatedAt:      now.Unix(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race on one of the unique indexes; the winner holds
			// the account now, so resolve again from the top.
			if user, ferr := r.FindByProviderKey(ctx, identity.Provider, identity.SubjectID); ferr == nil {
				return user, nil
			}
			user, lerr := r.linkProviderKey(ctx, identity)
			if errors.Is(lerr, domain.ErrUserNotFound) {
				// The identifier belongs to an account already linked to a
				// different provider key.
				return nil, fmt.Errorf("identifier %q already bound to another identity: %w", identity.Identifier, domain.ErrUserExists)
			}
			return user, lerr
		}
		return nil, fmt.Errorf("insert federated user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

// linkProviderKey attaches the provider identity to the account that owns
// the matching identifier, provided no other provider key is set on it.
// Returns domain.ErrUserNotFound when no such account exists.
func (r *UserRepository) linkProviderKey(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error) {
	filter := bson.M{
		"identifier":       identity.Identifier,
		"provider_user_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"provider":         identity.Provider,
		"provider_user_id": identity.SubjectID,
		"updated_at":       time.Now().UTC().Unix(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoUser
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return r.FindByProviderKey(ctx, identity.Provider, identity.SubjectID)
		}
		return nil, fmt.Errorf("link provider key: %w", err)
	}
	return mu.toDomain(), nil
}

// EnsureIndexes creates the uniqueness indexes the store's atomicity
// guarantees depend on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_user_id": bson.M{"$exists": true}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
