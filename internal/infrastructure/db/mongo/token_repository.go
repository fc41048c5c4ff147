package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tokenCollection = "session_tokens"

// collection is the subset of *mongo.Collection the repository needs.
type collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// TokenRepository keeps the session token in a single document keyed by name.
type TokenRepository struct {
	coll collection
	name string
	now  func() time.Time
}

func NewTokenRepository(db *mongo.Database, name string) *TokenRepository {
	return newTokenRepository(db.Collection(tokenCollection), name)
}

func newTokenRepository(coll collection, name string) *TokenRepository {
	return &TokenRepository{coll: coll, name: name, now: time.Now}
}

type tokenDoc struct {
	Name      string `bson:"_id"`
	Token     string `bson:"token"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (r *TokenRepository) Load(ctx context.Context) (string, bool, error) {
	var doc tokenDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": r.name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find token: %w", err)
	}
	return doc.Token, doc.Token != "", nil
}

func (r *TokenRepository) Save(ctx context.Context, token string) error {
	doc := tokenDoc{Name: r.name, Token: token, UpdatedAt: r.now().Unix()}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": r.name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": r.name}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
