package postgres

import (
	"context"
	"fmt"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mmcloughlin/geohash"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

const (
	locationGeohashPrecision = 9
	locationSRID             = 4326
)

// execer - часть pgxpool.Pool, которая нужна адаптеру
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// CrawledPropertySinkAdapter сохраняет объявления в таблицу crawled_properties.
// Только вставка: существующая запись с тем же external_id не изменяется.
type CrawledPropertySinkAdapter struct {
	db execer
}

// NewCrawledPropertySinkAdapter принимает *pgxpool.Pool или транзакцию
func NewCrawledPropertySinkAdapter(db execer) *CrawledPropertySinkAdapter {
	return &CrawledPropertySinkAdapter{db: db}
}

// location хранится как PostGIS geometry(Point, 4326); без координат NULL
const insertCrawledPropertySQL = `
INSERT INTO crawled_properties (
	external_id, display_name, type_label, deal_type_label, floor_info,
	price_raw, primary_area_raw, secondary_area_raw, direction,
	latitude, longitude, location, location_geohash, image_url, realtor_name,
	land_type_raw, zone_type_raw, created_at
) VALUES (
	@external_id, @display_name, @type_label, @deal_type_label, @floor_info,
	@price_raw, @primary_area_raw, @secondary_area_raw, @direction,
	@latitude, @longitude, ST_SetSRID(ST_GeomFromWKB(@location), @srid), @location_geohash, @image_url, @realtor_name,
	@land_type_raw, @zone_type_raw, NOW()
)
ON CONFLICT (external_id) DO NOTHING`

// CreateCrawledProperty вставляет запись; повторный external_id не считается ошибкой
func (a *CrawledPropertySinkAdapter) CreateCrawledProperty(ctx context.Context, p domain.CrawledProperty) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "CrawledPropertySinkAdapter",
		"external_id": p.ExternalID,
	})

	location, err := locationWKB(p)
	if err != nil {
		return fmt.Errorf("%w: encode location of %s: %v", domain.ErrPersistence, p.ExternalID, err)
	}

	args := pgx.NamedArgs{
		"external_id":        p.ExternalID,
		"display_name":       p.DisplayName,
		"type_label":         p.TypeLabel,
		"deal_type_label":    p.DealTypeLabel,
		"floor_info":         p.FloorInfo,
		"price_raw":          p.PriceRaw,
		"primary_area_raw":   p.PrimaryAreaRaw,
		"secondary_area_raw": p.SecondaryAreaRaw,
		"direction":          p.Direction,
		"latitude":           p.Latitude,
		"longitude":          p.Longitude,
		"location":           location,
		"srid":               locationSRID,
		"location_geohash":   locationGeohash(p),
		"image_url":          p.ImageURL,
		"realtor_name":       p.RealtorName,
		"land_type_raw":      p.LandTypeRaw,
		"zone_type_raw":      p.ZoneTypeRaw,
	}

	tag, err := a.db.Exec(ctx, insertCrawledPropertySQL, args)
	if err != nil {
		return fmt.Errorf("%w: insert crawled property %s: %v", domain.ErrPersistence, p.ExternalID, err)
	}

	if tag.RowsAffected() == 0 {
		logger.Debug("Crawled property already stored, skipped", nil)
	}
	return nil
}

// locationWKB кодирует точку (lon, lat) в WKB; без координат nil
func locationWKB(p domain.CrawledProperty) ([]byte, error) {
	if p.Latitude == nil || p.Longitude == nil {
		return nil, nil
	}
	point := geom.NewPointFlat(geom.XY, []float64{*p.Longitude, *p.Latitude})
	return wkb.Marshal(point, wkb.NDR)
}

// locationGeohash - geohash координат для поиска по соседству; без координат nil
func locationGeohash(p domain.CrawledProperty) *string {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	h := geohash.EncodeWithPrecision(*p.Latitude, *p.Longitude, locationGeohashPrecision)
	return &h
}
