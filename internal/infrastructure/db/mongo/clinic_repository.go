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

const collectionClinics = "clinics"

type clinicDocument struct {
	ID      int64    `bson:"_id"`
	Name    string   `bson:"name"`
	Address *string  `bson:"address,omitempty"`
	Lat     *float64 `bson:"lat,omitempty"`
	Lng     *float64 `bson:"lng,omitempty"`
}

func (d clinicDocument) toDomain() domain.Clinic {
	c := domain.Clinic{ID: d.ID, Name: d.Name}
	if d.Address != nil {
		c.Address = *d.Address
	}
	if d.Lat != nil && d.Lng != nil {
		c.Location = &domain.Coordinate{Lat: *d.Lat, Lng: *d.Lng}
	}
	return c
}

type ClinicRepository struct {
	col     *mongo.Collection
	timeout time.Duration
	logger  zerolog.Logger
}

func NewClinicRepository(db *mongo.Database, timeout time.Duration, logger zerolog.Logger) *ClinicRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ClinicRepository{col: db.Collection(collectionClinics), timeout: timeout, logger: logger}
}

// boxFilter matches documents whose lat and lng both fall inside box.
// Range operators never match a missing field.
func boxFilter(box domain.BoundingBox) bson.M {
	return bson.M{
		"lat": bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"lng": bson.M{"$gte": box.MinLng, "$lte": box.MaxLng},
	}
}

// FindInBox returns at most max clinics inside box.
func (r *ClinicRepository) FindInBox(ctx context.Context, box domain.BoundingBox, max int) ([]domain.Clinic, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cur, err := r.col.Find(ctx, boxFilter(box), options.Find().SetLimit(int64(max)))
	if err != nil {
		return nil, fmt.Errorf("%w: find clinics: %w", domain.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var docs []clinicDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode clinics: %w", domain.ErrStoreUnavailable, err)
	}

	clinics := make([]domain.Clinic, 0, len(docs))
	for _, d := range docs {
		clinics = append(clinics, d.toDomain())
	}

	r.logger.Debug().
		Int("rows", len(clinics)).
		Dur("took", time.Since(start)).
		Msg("clinics in box")

	return clinics, nil
}

// EnsureIndexes creates the compound coordinate index used by FindInBox.
func (r *ClinicRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lat", Value: 1}, {Key: "lng", Value: 1}},
	})
	return err
}
