package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// destination walks distKm from origin along bearingDeg on the sphere.
func destination(origin domain.Coordinate, bearingDeg, distKm float64) domain.Coordinate {
	delta := distKm / EarthRadiusKm
	theta := radians(bearingDeg)
	lat1 := radians(origin.Lat)
	lng1 := radians(origin.Lng)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	lng := degrees(lng2)
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return domain.Coordinate{Lat: degrees(lat2), Lng: lng}
}

// ---------------------------------------------------------------------------
// Distance
// ---------------------------------------------------------------------------

func TestDistance_KnownPairs(t *testing.T) {
	cases := []struct {
		name string
		a, b domain.Coordinate
		want float64
		tol  float64
	}{
		{"origin to 50,50", domain.Coordinate{}, domain.Coordinate{Lat: 50, Lng: 50}, 7293.89, 0.5},
		{"one hundredth of a degree on the equator", domain.Coordinate{}, domain.Coordinate{Lng: 0.01}, 1.112, 0.001},
		{"sydney cbd to bondi", domain.Coordinate{Lat: -33.8688, Lng: 151.2093}, domain.Coordinate{Lat: -33.8915, Lng: 151.2767}, 6.71, 0.02},
		{"quarter meridian", domain.Coordinate{}, domain.Coordinate{Lat: 90}, math.Pi * EarthRadiusKm / 2, 1e-6},
		{"antipodes", domain.Coordinate{}, domain.Coordinate{Lng: 180}, math.Pi * EarthRadiusKm, 1e-6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if !near(got, tc.want, tc.tol) {
				t.Errorf("Distance(%v, %v) = %.4f, want %.4f ± %g", tc.a, tc.b, got, tc.want, tc.tol)
			}
		})
	}
}

func TestDistance_SymmetricAndZeroOnSelf(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := domain.Coordinate{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := domain.Coordinate{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}

		if ab, ba := Distance(a, b), Distance(b, a); !near(ab, ba, 1e-9) {
			t.Fatalf("asymmetric: d(%v,%v)=%v d(%v,%v)=%v", a, b, ab, b, a, ba)
		}
		if d := Distance(a, a); d != 0 {
			t.Fatalf("d(%v,%v) = %v, want 0", a, a, d)
		}
	}
}

func TestHaversine_MatchesDistance(t *testing.T) {
	a := domain.Coordinate{Lat: 19.4326, Lng: -99.1332}
	b := domain.Coordinate{Lat: 19.4270, Lng: -99.1677}
	if got, want := (Haversine{}).Distance(a, b), Distance(a, b); got != want {
		t.Fatalf("Haversine.Distance = %v, want %v", got, want)
	}
}

func TestRoundKm(t *testing.T) {
	cases := map[float64]float64{
		0:         0,
		1.11195:   1.11,
		5.0038:    5.0,
		6.7149:    6.71,
		7293.8871: 7293.89,
	}
	for in, want := range cases {
		if got := RoundKm(in); got != want {
			t.Errorf("RoundKm(%v) = %v, want %v", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Window
// ---------------------------------------------------------------------------

func TestWindow_EquatorDeltas(t *testing.T) {
	box := Window(domain.Coordinate{}, 111)

	if !near(box.MinLat, -1, 1e-12) || !near(box.MaxLat, 1, 1e-12) {
		t.Fatalf("latitude window = [%v, %v], want [-1, 1]", box.MinLat, box.MaxLat)
	}
	if box.MaxLng < 111/kmPerDegreeLngEquator {
		t.Fatalf("longitude half-width %v narrower than flat estimate %v", box.MaxLng, 111/kmPerDegreeLngEquator)
	}
	if box.MinLng != -box.MaxLng {
		t.Fatalf("longitude window not centred: [%v, %v]", box.MinLng, box.MaxLng)
	}
}

func TestWindow_WidensTowardsPoles(t *testing.T) {
	eq := Window(domain.Coordinate{Lat: 0, Lng: 10}, 50)
	north := Window(domain.Coordinate{Lat: 60, Lng: 10}, 50)

	eqWidth := eq.MaxLng - eq.MinLng
	northWidth := north.MaxLng - north.MinLng
	if northWidth <= eqWidth {
		t.Fatalf("expected wider longitude window at 60N: eq=%v north=%v", eqWidth, northWidth)
	}
}

func TestWindow_PoleCoveringCircleSpansAllLongitudes(t *testing.T) {
	box := Window(domain.Coordinate{Lat: 89.99, Lng: 45}, 5)

	if box.MinLng != -180 || box.MaxLng != 180 {
		t.Fatalf("longitude window = [%v, %v], want full range", box.MinLng, box.MaxLng)
	}
	if box.MaxLat != 90 {
		t.Fatalf("MaxLat = %v, want clamped to 90", box.MaxLat)
	}
}

func TestWindow_AntimeridianSpansAllLongitudes(t *testing.T) {
	box := Window(domain.Coordinate{Lat: -17.7, Lng: 179.95}, 20)

	if box.MinLng != -180 || box.MaxLng != 180 {
		t.Fatalf("longitude window = [%v, %v], want full range", box.MinLng, box.MaxLng)
	}
	if !box.Contains(domain.Coordinate{Lat: -17.7, Lng: -179.95}) {
		t.Fatal("point across the antimeridian excluded")
	}
}

func TestWindow_ContainsEveryPointWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	centers := []domain.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 45, Lng: 7.5},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 80, Lng: -170},
		{Lat: -80, Lng: 170},
		{Lat: 89.5, Lng: 0},
	}
	radii := []float64{0.5, 1, 5, 50, 500, 2500}

	for _, c := range centers {
		for _, r := range radii {
			box := Window(c, r)
			for i := 0; i < 200; i++ {
				d := r * 0.999999 * math.Sqrt(rng.Float64())
				if i%10 == 0 {
					d = r * 0.999999
				}
				p := destination(c, rng.Float64()*360, d)
				if !box.Contains(p) {
					t.Fatalf("center=%v r=%v: point %v at %.6f km outside box %+v", c, r, p, Distance(c, p), box)
				}
			}
		}
	}
}

func TestBoxPrefilter_MatchesWindow(t *testing.T) {
	c := domain.Coordinate{Lat: 40.4168, Lng: -3.7038}
	if got, want := (BoxPrefilter{}).Window(c, 5), Window(c, 5); got != want {
		t.Fatalf("BoxPrefilter.Window = %+v, want %+v", got, want)
	}
}
