package domain

// Coordinate is a geographic point in signed decimal degrees.
// Latitude is in [-90, 90] and longitude in [-180, 180].
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// BoundingBox is an axis-aligned latitude/longitude window.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether p lies inside the box, bounds inclusive.
func (b BoundingBox) Contains(p Coordinate) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
