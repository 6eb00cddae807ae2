package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

func newMock(t *testing.T) (*ClinicRepository, *ServiceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewClinicRepository(db, time.Second, zerolog.Nop()),
		NewServiceRepository(db, time.Second, zerolog.Nop()),
		mock
}

// ---------------------------------------------------------------------------
// Query shape
// ---------------------------------------------------------------------------

func TestBoxQuery_FiltersInclusivelyAndCaps(t *testing.T) {
	box := domain.BoundingBox{MinLat: -1, MaxLat: 1, MinLng: 2, MaxLng: 3}
	query, args, err := boxQuery(box, 1000)
	if err != nil {
		t.Fatalf("boxQuery: %v", err)
	}

	for _, frag := range []string{
		`FROM "clinics_clinic"`,
		`"lat" BETWEEN $1 AND $2`,
		`"lng" BETWEEN $3 AND $4`,
		`LIMIT $5`,
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query %q missing %q", query, frag)
		}
	}
	if len(args) != 5 || args[0] != -1.0 || args[3] != 3.0 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestServicesQuery_OrdersByClinicThenID(t *testing.T) {
	query, args, err := servicesQuery([]int64{4, 9})
	if err != nil {
		t.Fatalf("servicesQuery: %v", err)
	}

	for _, frag := range []string{
		`FROM "clinics_service"`,
		`"clinic_id" IN ($1, $2)`,
		`ORDER BY "clinic_id" ASC, "id" ASC`,
		`CAST("price" AS DOUBLE PRECISION)`,
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query %q missing %q", query, frag)
		}
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %v", args)
	}
}

// ---------------------------------------------------------------------------
// ClinicRepository
// ---------------------------------------------------------------------------

func TestClinicRepository_FindInBox(t *testing.T) {
	clinics, _, mock := newMock(t)
	box := domain.BoundingBox{MinLat: -0.05, MaxLat: 0.05, MinLng: -0.05, MaxLng: 0.05}

	mock.ExpectQuery(`SELECT .+ FROM "clinics_clinic" WHERE .+ BETWEEN .+ LIMIT`).
		WithArgs(box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "lat", "lng", "address"}).
			AddRow(int64(1), "Sonrisa Centro", 0.0, 0.01, "Av. Reforma 10").
			AddRow(int64(2), "Sin dirección", 0.02, -0.01, nil).
			AddRow(int64(3), "Sin ubicación", nil, nil, "Calle 5"))

	got, err := clinics.FindInBox(context.Background(), box, 1000)
	if err != nil {
		t.Fatalf("FindInBox: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].Location == nil || got[0].Location.Lng != 0.01 || got[0].Address != "Av. Reforma 10" {
		t.Errorf("unexpected first clinic %+v", got[0])
	}
	if got[1].Address != "" {
		t.Errorf("expected null address to map to empty string, got %q", got[1].Address)
	}
	if got[2].Location != nil {
		t.Errorf("expected nil location for null coordinates, got %+v", got[2].Location)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClinicRepository_FindInBox_StoreError(t *testing.T) {
	clinics, _, mock := newMock(t)
	mock.ExpectQuery(`FROM "clinics_clinic"`).WillReturnError(errors.New("connection reset by peer"))

	_, err := clinics.FindInBox(context.Background(), domain.BoundingBox{}, 1000)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestClinicRepository_FindInBox_RowError(t *testing.T) {
	clinics, _, mock := newMock(t)
	mock.ExpectQuery(`FROM "clinics_clinic"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "lat", "lng", "address"}).
			AddRow(int64(1), "A", 0.0, 0.0, "").
			RowError(0, errors.New("broken pipe")))

	_, err := clinics.FindInBox(context.Background(), domain.BoundingBox{}, 1000)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ServiceRepository
// ---------------------------------------------------------------------------

func TestServiceRepository_FindByClinicIDs(t *testing.T) {
	_, services, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "clinic_id" ASC, "id" ASC`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "clinic_id", "name", "duration_mins", "price"}).
			AddRow(int64(10), int64(1), "Limpieza", int64(30), 450.5).
			AddRow(int64(11), int64(1), "Valoración", int64(15), nil).
			AddRow(int64(20), int64(2), "Resina", int64(45), 800.0))

	got, err := services.FindByClinicIDs(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("FindByClinicIDs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 services, got %d", len(got))
	}
	if got[0].Price == nil || *got[0].Price != 450.5 || got[0].DurationMins != 30 {
		t.Errorf("unexpected first service %+v", got[0])
	}
	if got[1].Price != nil {
		t.Errorf("expected nil price, got %v", *got[1].Price)
	}
	if got[2].ClinicID != 2 {
		t.Errorf("expected clinic 2, got %d", got[2].ClinicID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceRepository_EmptyIDsSkipsQuery(t *testing.T) {
	_, services, mock := newMock(t)

	got, err := services.FindByClinicIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query: %v", err)
	}
}

func TestServiceRepository_StoreError(t *testing.T) {
	_, services, mock := newMock(t)
	mock.ExpectQuery(`FROM "clinics_service"`).WillReturnError(context.DeadlineExceeded)

	_, err := services.FindByClinicIDs(context.Background(), []int64{1})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Schema and seed
// ---------------------------------------------------------------------------

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS clinics_clinic`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS clinics_clinic_lat_lng_idx`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS clinics_service`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS clinics_service_clinic_id_idx`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := InitSchema(context.Background(), db); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitSchema_NilDB(t *testing.T) {
	if err := InitSchema(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil DB")
	}
}

func TestParseSeed_Validation(t *testing.T) {
	cases := map[string]string{
		"bad json":          `{`,
		"missing id":        `[{"name":"A"}]`,
		"missing name":      `[{"id":1,"name":"  "}]`,
		"half coordinate":   `[{"id":1,"name":"A","lat":1}]`,
		"out of range":      `[{"id":1,"name":"A","lat":91,"lng":0}]`,
		"duplicate service": `[{"id":1,"name":"A","services":[{"id":5},{"id":5}]}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	ok, err := ParseSeed([]byte(`[{"id":1,"name":"A","lat":19.4,"lng":-99.1,"services":[{"id":7,"name":"Limpieza","duration_mins":30,"price":null}]}]`))
	if err != nil {
		t.Fatalf("valid seed rejected: %v", err)
	}
	if len(ok) != 1 || len(ok[0].Services) != 1 || ok[0].Services[0].Price != nil {
		t.Fatalf("unexpected parse result %+v", ok)
	}
}

func TestSeedFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinics.json")
	doc := `[{"id":1,"name":"Sonrisa Centro","address":"Av. Juárez 4","lat":19.43,"lng":-99.14,
		"services":[{"id":10,"name":"Limpieza","duration_mins":30,"price":450}]},
		{"id":2,"name":"Sin ubicación"}]`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "clinics_clinic" .+ ON CONFLICT`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM "clinics_service"`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "clinics_service"`).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`INSERT INTO "clinics_clinic" .+ ON CONFLICT`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`DELETE FROM "clinics_service"`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT setval`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT setval`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := SeedFromJSON(context.Background(), db, path); err != nil {
		t.Fatalf("SeedFromJSON: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeedFromJSON_MissingFile(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	if err := SeedFromJSON(context.Background(), db, filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
