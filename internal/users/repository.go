package users

import (
	"context"
	"errors"
	"time"

	"github.com/twitteroauth/auth-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when a create violates a unique constraint
// (email, or an already-issued refresh token hash).
var ErrDuplicate = errors.New("users: duplicate key")

// Patch is a partial update applied by UpdateByID. Nil fields are left
// untouched; a pointer to the zero value clears the field.
type Patch struct {
	TwitterTokens    *models.TwitterTokens
	RefreshTokenHash *string
	PasswordHash     *string
	ProfileImage     *string
}

// Repository defines persistence operations for users
type Repository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByTwitterID(ctx context.Context, twitterID string) (*models.User, error)
	FindByRefreshTokenHash(ctx context.Context, hash string) (*models.User, error)
	UpdateByID(ctx context.Context, id string, p Patch) (*models.User, error)
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a new repository for the given collection
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// EnsureIndexes creates the unique constraints the reconciliation logic
// relies on. Sparse indexes keep uniqueness scoped to documents that carry
// the field.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "refreshToken", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "twitter", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByTwitterID(ctx context.Context, twitterID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"twitter": twitterID})
}

func (r *MongoRepository) FindByRefreshTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"refreshToken": hash})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpdateByID applies the patch in a single atomic replace-and-save so a
// concurrent reader never observes a half-written document.
func (r *MongoRepository) UpdateByID(ctx context.Context, id string, p Patch) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}
	if p.TwitterTokens != nil {
		set["twitterTokens"] = p.TwitterTokens
	}
	if p.RefreshTokenHash != nil {
		if *p.RefreshTokenHash == "" {
			unset["refreshToken"] = ""
		} else {
			set["refreshToken"] = *p.RefreshTokenHash
		}
	}
	if p.PasswordHash != nil {
		set["password"] = *p.PasswordHash
	}
	if p.ProfileImage != nil {
		set["profileImage"] = *p.ProfileImage
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &updated, nil
}
