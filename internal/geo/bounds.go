package geo

const (
	// BoundsPaddingPX отступ от краёв карты при подгонке границ.
	BoundsPaddingPX = 20
	// BoundsMaxZoom максимальный зум после подгонки.
	BoundsMaxZoom = 13
)

// Bounds прямоугольник на карте с параметрами подгонки.
type Bounds struct {
	SouthWest Point `json:"south_west"`
	NorthEast Point `json:"north_east"`
	PaddingPX int   `json:"padding_px"`
	MaxZoom   int   `json:"max_zoom"`
}

// Center центр прямоугольника.
func (b Bounds) Center() Point {
	return Point{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Contains сообщает, попадает ли точка в прямоугольник.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// FitBounds строит минимальный прямоугольник, содержащий все точки.
// Пустой список даёт вырожденный прямоугольник в DefaultPoint.
func FitBounds(points []Point) Bounds {
	b := Bounds{PaddingPX: BoundsPaddingPX, MaxZoom: BoundsMaxZoom}
	if len(points) == 0 {
		b.SouthWest = Point{Lat: DefaultPoint.Lat, Lng: DefaultPoint.Lng}
		b.NorthEast = b.SouthWest
		return b
	}

	b.SouthWest = Point{Lat: points[0].Lat, Lng: points[0].Lng}
	b.NorthEast = b.SouthWest
	for _, p := range points[1:] {
		if p.Lat < b.SouthWest.Lat {
			b.SouthWest.Lat = p.Lat
		}
		if p.Lng < b.SouthWest.Lng {
			b.SouthWest.Lng = p.Lng
		}
		if p.Lat > b.NorthEast.Lat {
			b.NorthEast.Lat = p.Lat
		}
		if p.Lng > b.NorthEast.Lng {
			b.NorthEast.Lng = p.Lng
		}
	}
	return b
}

// FitMarkers подгоняет границы под маркеры с координатами из БД.
// Некорректные координаты заменяются точкой по умолчанию.
func FitMarkers(coords [][2]*float64) (Bounds, []Point) {
	points := make([]Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, MarkerPoint(c[0], c[1]))
	}
	return FitBounds(points), points
}
