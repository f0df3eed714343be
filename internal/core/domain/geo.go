package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// sectorGeohashPrecision - 7 символов дают ячейку ~150м, этого хватает для корреляции логов
const sectorGeohashPrecision = 7

// BoundingBox - географический прямоугольник в градусах WGS84
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Validate проверяет, что координаты конечны, лежат в допустимых диапазонах
// и min < max по обеим осям.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate in %s", ErrInvalidBoundingBox, b)
		}
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("%w: latitude out of range in %s", ErrInvalidBoundingBox, b)
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: longitude out of range in %s", ErrInvalidBoundingBox, b)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("%w: minLat %v >= maxLat %v", ErrInvalidBoundingBox, b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: minLon %v >= maxLon %v", ErrInvalidBoundingBox, b.MinLon, b.MaxLon)
	}
	return nil
}

// Center возвращает центр прямоугольника (lat, lon)
func (b BoundingBox) Center() (float64, float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// ParseBoundingBox разбирает строку вида "minLat,minLon,maxLat,maxLon" и валидирует результат
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: expected 4 comma-separated values, got %d", ErrInvalidBoundingBox, len(parts))
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: value %q: %v", ErrInvalidBoundingBox, p, err)
		}
		vals[i] = v
	}

	box := BoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Sector - ячейка сетки. Row/Col и Geohash нужны только для логов.
type Sector struct {
	Box     BoundingBox
	Row     int
	Col     int
	Geohash string
}

// NewSector создает сектор и вычисляет geohash его центра
func NewSector(box BoundingBox, row, col int) Sector {
	lat, lon := box.Center()
	return Sector{
		Box:     box,
		Row:     row,
		Col:     col,
		Geohash: geohash.EncodeWithPrecision(lat, lon, sectorGeohashPrecision),
	}
}

// Partition делит прямоугольник на rows x cols секторов линейной интерполяцией.
// Соседние секторы используют одно и то же значение границы, внешние границы
// берутся из исходного прямоугольника без вычислений.
// Порядок: по строкам снизу вверх, внутри строки слева направо.
func Partition(box BoundingBox, rows, cols int) ([]Sector, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}

	latEdges := edges(box.MinLat, box.MaxLat, rows)
	lonEdges := edges(box.MinLon, box.MaxLon, cols)

	sectors := make([]Sector, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sectors = append(sectors, NewSector(BoundingBox{
				MinLat: latEdges[r],
				MinLon: lonEdges[c],
				MaxLat: latEdges[r+1],
				MaxLon: lonEdges[c+1],
			}, r, c))
		}
	}
	return sectors, nil
}

func edges(lo, hi float64, n int) []float64 {
	out := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	out[0] = lo
	for i := 1; i < n; i++ {
		out[i] = lo + step*float64(i)
	}
	out[n] = hi
	return out
}
