package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"land-crawler-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

type fakeExecer struct {
	sql  string
	args pgx.NamedArgs
	tag  pgconn.CommandTag
	err  error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	if len(arguments) == 1 {
		f.args, _ = arguments[0].(pgx.NamedArgs)
	}
	return f.tag, f.err
}

func TestCreateCrawledProperty_InsertOnly(t *testing.T) {
	lat, lon := 37.5665, 126.978
	db := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	sink := NewCrawledPropertySinkAdapter(db)

	err := sink.CreateCrawledProperty(context.Background(), domain.CrawledProperty{
		ExternalID:  "2412345678",
		DisplayName: "Plot",
		Latitude:    &lat,
		Longitude:   &lon,
	})
	if err != nil {
		t.Fatalf("CreateCrawledProperty: %v", err)
	}

	if !strings.Contains(db.sql, "ON CONFLICT (external_id) DO NOTHING") {
		t.Fatalf("insert must ignore existing external ids: %s", db.sql)
	}
	if strings.Contains(strings.ToUpper(db.sql), "DO UPDATE") {
		t.Fatalf("insert must never overwrite: %s", db.sql)
	}
	if db.args == nil || db.args["external_id"] != "2412345678" {
		t.Fatalf("args: got %v", db.args)
	}

	hash, ok := db.args["location_geohash"].(*string)
	if !ok || hash == nil || len(*hash) != locationGeohashPrecision {
		t.Fatalf("geohash arg: got %v", db.args["location_geohash"])
	}

	raw, ok := db.args["location"].([]byte)
	if !ok || raw == nil {
		t.Fatalf("location arg: got %v", db.args["location"])
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		t.Fatalf("location is not valid WKB: %v", err)
	}
	point, ok := g.(*geom.Point)
	if !ok || point.X() != lon || point.Y() != lat {
		t.Fatalf("location point: got %v, want (%v %v)", g, lon, lat)
	}
}

func TestCreateCrawledProperty_ExistingRowIsNotAnError(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 0")}
	if err := NewCrawledPropertySinkAdapter(db).CreateCrawledProperty(context.Background(), domain.CrawledProperty{ExternalID: "1"}); err != nil {
		t.Fatalf("CreateCrawledProperty: %v", err)
	}
	if hash, _ := db.args["location_geohash"].(*string); hash != nil {
		t.Fatalf("geohash without coordinates: got %q, want nil", *hash)
	}
	if raw, _ := db.args["location"].([]byte); raw != nil {
		t.Fatalf("location without coordinates: got %v, want nil", raw)
	}
}

func TestCreateCrawledProperty_WrapsErrors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection refused")}
	err := NewCrawledPropertySinkAdapter(db).CreateCrawledProperty(context.Background(), domain.CrawledProperty{ExternalID: "1"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("CreateCrawledProperty: got %v, want ErrPersistence", err)
	}
}
