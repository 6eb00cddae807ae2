package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

const collectionServices = "services"

type serviceDocument struct {
	ID           int64    `bson:"_id"`
	ClinicID     int64    `bson:"clinic_id"`
	Name         string   `bson:"name"`
	DurationMins int      `bson:"duration_mins"`
	Price        *float64 `bson:"price,omitempty"`
}

func (d serviceDocument) toDomain() domain.Service {
	return domain.Service{
		ID:           d.ID,
		ClinicID:     d.ClinicID,
		Name:         d.Name,
		DurationMins: d.DurationMins,
		Price:        d.Price,
	}
}

type ServiceRepository struct {
	col     *mongo.Collection
	timeout time.Duration
	logger  zerolog.Logger
}

func NewServiceRepository(db *mongo.Database, timeout time.Duration, logger zerolog.Logger) *ServiceRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ServiceRepository{col: db.Collection(collectionServices), timeout: timeout, logger: logger}
}

func clinicIDsFilter(clinicIDs []int64) bson.M {
	return bson.M{"clinic_id": bson.M{"$in": clinicIDs}}
}

var serviceOrder = bson.D{{Key: "clinic_id", Value: 1}, {Key: "_id", Value: 1}}

// FindByClinicIDs loads every service of the listed clinics in one round trip.
func (r *ServiceRepository) FindByClinicIDs(ctx context.Context, clinicIDs []int64) ([]domain.Service, error) {
	if len(clinicIDs) == 0 {
		return []domain.Service{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cur, err := r.col.Find(ctx, clinicIDsFilter(clinicIDs), options.Find().SetSort(serviceOrder))
	if err != nil {
		return nil, fmt.Errorf("%w: find services: %w", domain.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var docs []serviceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode services: %w", domain.ErrStoreUnavailable, err)
	}

	services := make([]domain.Service, 0, len(docs))
	for _, d := range docs {
		services = append(services, d.toDomain())
	}

	r.logger.Debug().
		Int("clinics", len(clinicIDs)).
		Int("rows", len(services)).
		Dur("took", time.Since(start)).
		Msg("services by clinic")

	return services, nil
}

// EnsureIndexes creates the index backing the batch lookup and its sort.
func (r *ServiceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: serviceOrder})
	return err
}
