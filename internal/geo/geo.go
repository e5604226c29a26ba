// Package geo содержит расчёт расстояний, разбор координат и подгонку
// границ карты для списка поставщиков.
package geo

import (
	"math"
)

// EarthRadiusKM средний радиус Земли, используемый в формуле гаверсинуса.
const EarthRadiusKM = 6371.0

// DefaultPoint точка по умолчанию (центр Амстердама).
var DefaultPoint = Point{Lat: 52.3676, Lng: 4.9041}

// Point географическая точка в градусах.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	// Fallback выставляется, если исходные координаты были некорректны
	// и вместо них подставлена DefaultPoint.
	Fallback bool `json:"-"`
}

// Valid сообщает, находится ли точка в допустимом диапазоне.
func (p Point) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lng >= -180 && p.Lng <= 180
}

// MarkerPoint точка маркера карты. Пустые, бесконечные или вне диапазона
// координаты дают DefaultPoint с Fallback=true.
func MarkerPoint(lat, lng *float64) Point {
	if p, ok := FromPointers(lat, lng); ok {
		return p
	}
	return fallback()
}

// FromPointers собирает точку из nullable полей БД.
func FromPointers(lat, lng *float64) (Point, bool) {
	if lat == nil || lng == nil {
		return Point{}, false
	}
	p := Point{Lat: *lat, Lng: *lng}
	return p, p.Valid()
}

func fallback() Point {
	p := DefaultPoint
	p.Fallback = true
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Distance возвращает расстояние между точками в километрах (гаверсинус).
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RoundKM округляет расстояние до сотых километра для выдачи.
func RoundKM(km float64) float64 {
	return math.Round(km*100) / 100
}
