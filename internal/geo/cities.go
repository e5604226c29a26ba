package geo

import (
	"sort"
	"strings"
)

// City город Нидерландов из справочника.
type City struct {
	Name       string `json:"name"`
	Province   string `json:"province"`
	Point      Point  `json:"coordinates"`
	Population int    `json:"population"`
	Major      bool   `json:"is_major_city"`
}

var cities = []City{
	{"Amsterdam", "Noord-Holland", Point{Lat: 52.3676, Lng: 4.9041}, 921402, true},
	{"Rotterdam", "Zuid-Holland", Point{Lat: 51.9244, Lng: 4.4777}, 655468, true},
	{"Den Haag", "Zuid-Holland", Point{Lat: 52.0705, Lng: 4.3007}, 548320, true},
	{"Utrecht", "Utrecht", Point{Lat: 52.0907, Lng: 5.1214}, 361966, true},
	{"Eindhoven", "Noord-Brabant", Point{Lat: 51.4416, Lng: 5.4697}, 238326, true},
	{"Groningen", "Groningen", Point{Lat: 53.2194, Lng: 6.5665}, 235287, true},
	{"Tilburg", "Noord-Brabant", Point{Lat: 51.5555, Lng: 5.0913}, 224702, true},
	{"Almere", "Flevoland", Point{Lat: 52.3508, Lng: 5.2647}, 218096, true},
	{"Breda", "Noord-Brabant", Point{Lat: 51.5719, Lng: 4.7683}, 185072, true},
	{"Nijmegen", "Gelderland", Point{Lat: 51.8426, Lng: 5.8518}, 179073, true},
	{"Apeldoorn", "Gelderland", Point{Lat: 52.2112, Lng: 5.9699}, 164292, true},
	{"Haarlem", "Noord-Holland", Point{Lat: 52.3874, Lng: 4.6462}, 162961, true},
	{"Arnhem", "Gelderland", Point{Lat: 51.9851, Lng: 5.8987}, 161368, true},
	{"Enschede", "Overijssel", Point{Lat: 52.2215, Lng: 6.8937}, 159734, true},
	{"Amersfoort", "Utrecht", Point{Lat: 52.1561, Lng: 5.3878}, 158231, false},
	{"Zaanstad", "Noord-Holland", Point{Lat: 52.4389, Lng: 4.8289}, 156711, true},
	{"Haarlemmermeer", "Noord-Holland", Point{Lat: 52.3007, Lng: 4.6910}, 156039, false},
	{"'s-Hertogenbosch", "Noord-Brabant", Point{Lat: 51.6856, Lng: 5.3036}, 155113, true},
	{"Zwolle", "Overijssel", Point{Lat: 52.5168, Lng: 6.0830}, 130592, true},
	{"Zoetermeer", "Zuid-Holland", Point{Lat: 52.0575, Lng: 4.4937}, 125283, false},
	{"Leiden", "Zuid-Holland", Point{Lat: 52.1601, Lng: 4.4970}, 125174, false},
	{"Leeuwarden", "Friesland", Point{Lat: 53.2012, Lng: 5.7999}, 124058, true},
	{"Maastricht", "Limburg", Point{Lat: 50.8514, Lng: 5.6910}, 121565, true},
	{"Dordrecht", "Zuid-Holland", Point{Lat: 51.8133, Lng: 4.6901}, 119300, false},
	{"Alphen aan den Rijn", "Zuid-Holland", Point{Lat: 52.1301, Lng: 4.6581}, 111889, false},
	{"Alkmaar", "Noord-Holland", Point{Lat: 52.6319, Lng: 4.7519}, 109896, false},
	{"Emmen", "Drenthe", Point{Lat: 52.7791, Lng: 6.9095}, 107055, false},
	{"Delft", "Zuid-Holland", Point{Lat: 52.0116, Lng: 4.3571}, 103659, false},
	{"Venlo", "Limburg", Point{Lat: 51.3704, Lng: 6.1724}, 101797, false},
	{"Deventer", "Overijssel", Point{Lat: 52.2553, Lng: 6.1639}, 100718, false},
	{"Helmond", "Noord-Brabant", Point{Lat: 51.4816, Lng: 5.6561}, 92432, false},
	{"Sittard", "Limburg", Point{Lat: 50.9979, Lng: 5.8689}, 92422, false},
	{"Hilversum", "Noord-Holland", Point{Lat: 52.2242, Lng: 5.1762}, 92382, false},
	{"Oss", "Noord-Brabant", Point{Lat: 51.7655, Lng: 5.5176}, 91932, false},
	{"Heerlen", "Limburg", Point{Lat: 50.8878, Lng: 5.9806}, 86762, false},
	{"Purmerend", "Noord-Holland", Point{Lat: 52.5051, Lng: 4.9593}, 81233, false},
	{"Lelystad", "Flevoland", Point{Lat: 52.5184, Lng: 5.4750}, 78619, false},
	{"Schiedam", "Zuid-Holland", Point{Lat: 51.9172, Lng: 4.3889}, 78739, false},
	{"Roosendaal", "Noord-Brabant", Point{Lat: 51.5308, Lng: 4.4653}, 77725, false},
	{"Gouda", "Zuid-Holland", Point{Lat: 52.0115, Lng: 4.7107}, 73395, false},
	{"Hoorn", "Noord-Holland", Point{Lat: 52.6425, Lng: 5.0597}, 73259, false},
	{"Assen", "Drenthe", Point{Lat: 52.9925, Lng: 6.5649}, 68606, false},
	{"Veenendaal", "Utrecht", Point{Lat: 52.0283, Lng: 5.5547}, 66491, false},
	{"Zeist", "Utrecht", Point{Lat: 52.0886, Lng: 5.2317}, 64932, false},
	{"Nieuwegein", "Utrecht", Point{Lat: 52.0292, Lng: 5.0808}, 63461, false},
	{"Roermond", "Limburg", Point{Lat: 51.1942, Lng: 5.9873}, 58254, false},
	{"Heerenveen", "Friesland", Point{Lat: 52.9608, Lng: 5.9197}, 50697, false},
	{"Middelburg", "Zeeland", Point{Lat: 51.5000, Lng: 3.6144}, 48810, false},
}

// Альтернативные названия городов.
var cityAliases = map[string]string{
	"the hague":       "den haag",
	"s-gravenhage":    "den haag",
	"den bosch":       "'s-hertogenbosch",
	"s-hertogenbosch": "'s-hertogenbosch",
}

var cityIndex = func() map[string]City {
	idx := make(map[string]City, len(cities))
	for _, c := range cities {
		idx[strings.ToLower(c.Name)] = c
	}
	return idx
}()

// NormalizeCityName приводит название к ключу справочника.
func NormalizeCityName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := cityAliases[key]; ok {
		return alias
	}
	return key
}

// LookupCity ищет город по точному названию или псевдониму.
func LookupCity(name string) (City, bool) {
	c, ok := cityIndex[NormalizeCityName(name)]
	return c, ok
}

// SearchCities возвращает города, название или псевдоним которых содержит
// query, по убыванию населения. Пустой query возвращает крупнейшие города.
func SearchCities(query string, limit int, majorOnly bool) []City {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(query))

	matched := make(map[string]City)
	for _, c := range cities {
		if majorOnly && !c.Major {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			matched[c.Name] = c
		}
	}
	if q != "" {
		for alias, target := range cityAliases {
			if !strings.Contains(alias, q) {
				continue
			}
			if c, ok := cityIndex[target]; ok && (!majorOnly || c.Major) {
				matched[c.Name] = c
			}
		}
	}

	result := make([]City, 0, len(matched))
	for _, c := range matched {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Population != result[j].Population {
			return result[i].Population > result[j].Population
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
