package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
)

// envelope wraps a document so the docstore id becomes the MongoDB _id
// without requiring callers to model it.
type envelope struct {
	ID        string    `bson:"_id"`
	Doc       any       `bson:"doc"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type rawEnvelope struct {
	Doc bson.Raw `bson:"doc"`
}

// Store implements docstore.Store on top of a MongoDB database.
// Each docstore collection maps onto a MongoDB collection of the same name.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ docstore.Store = (*Store)(nil)

// New returns a store bound to the named database.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// NewFromConfig connects using cfg and returns a ready store.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Database), nil
}

// Client exposes the underlying client for health checks and shutdown.
func (s *Store) Client() *mongo.Client {
	return s.client
}

func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	var raw rawEnvelope
	err := s.db.Collection(collection).FindOne(ctx, byID(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw.Doc, dst)
}

func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	_, err := s.db.Collection(collection).InsertOne(ctx, wrap(id, doc))
	if mongo.IsDuplicateKeyError(err) {
		return docstore.ErrAlreadyExists
	}
	return err
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	_, err := s.db.Collection(collection).ReplaceOne(ctx, byID(id), wrap(id, doc), options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Update(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	res, err := s.db.Collection(collection).ReplaceOne(ctx, byID(id), wrap(id, doc))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	_, err := s.db.Collection(collection).DeleteOne(ctx, byID(id))
	return err
}

// RunTransaction runs fn inside a multi-document transaction. The driver
// retries the callback on transient transaction errors, which is how write
// conflicts between concurrent callers surface in MongoDB.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, txView{store: s})
	})
	return err
}

// txView forwards to the store; the session-bound context routes every
// operation through the active transaction.
type txView struct {
	store *Store
}

func (tx txView) Get(ctx context.Context, collection, id string, dst any) error {
	return tx.store.Get(ctx, collection, id, dst)
}

func (tx txView) Set(ctx context.Context, collection, id string, doc any) error {
	return tx.store.Set(ctx, collection, id, doc)
}

func (tx txView) Delete(ctx context.Context, collection, id string) error {
	return tx.store.Delete(ctx, collection, id)
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func wrap(id string, doc any) envelope {
	return envelope{ID: id, Doc: doc, UpdatedAt: time.Now().UTC()}
}
