package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// ApplicationRepository appends submitted applications to MongoDB.
type ApplicationRepository struct {
	applications *mongo.Collection
	timeout      time.Duration
}

// NewApplicationRepository binds the repository to the applications collection.
// timeout bounds each insert; zero leaves it to the caller's context.
func NewApplicationRepository(db *mongo.Database, collection string, timeout time.Duration) *ApplicationRepository {
	return &ApplicationRepository{
		applications: db.Collection(collection),
		timeout:      timeout,
	}
}

// Insert writes the record and stores the generated id back on it.
func (r *ApplicationRepository) Insert(ctx context.Context, record *domain.Record) error {
	if record == nil {
		return errors.New("record must not be nil")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	doc := newApplicationDocument(record)
	if _, err := r.applications.InsertOne(ctx, doc); err != nil {
		return err
	}

	record.ID = doc.ID.Hex()
	return nil
}
