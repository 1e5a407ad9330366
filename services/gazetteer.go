package services

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"climate-dashboard/models"
)

// Coordinates is a (latitude, longitude) pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// ecuadorProvinces holds the centroid used to plot each province.
var ecuadorProvinces = map[string]Coordinates{
	"Azuay":                          {-2.8974, -79.0045},
	"Bolívar":                        {-1.7482, -79.1817},
	"Cañar":                          {-2.5680, -78.9569},
	"Carchi":                         {0.5026, -77.9332},
	"Chimborazo":                     {-1.6789, -78.6569},
	"Cotopaxi":                       {-0.9101, -78.6965},
	"El Oro":                         {-3.2586, -79.9576},
	"Esmeraldas":                     {0.9510, -79.6517},
	"Galápagos":                      {-0.9538, -90.9656},
	"Guayas":                         {-2.3100, -79.8977},
	"Imbabura":                       {0.3496, -78.1230},
	"Loja":                           {-3.9931, -79.2042},
	"Los Ríos":                       {-1.0295, -79.4630},
	"Manabí":                         {-1.0543, -80.4520},
	"Morona Santiago":                {-2.2381, -78.3715},
	"Napo":                           {-0.9956, -77.8120},
	"Orellana":                       {-0.5066, -76.9858},
	"Pastaza":                        {-1.4604, -78.0018},
	"Pichincha":                      {-0.2295, -78.5243},
	"Santa Elena":                    {-2.1780, -80.9593},
	"Santo Domingo de los Tsáchilas": {-0.2528, -79.2029},
	"Sucumbíos":                      {0.0884, -76.8833},
	"Tungurahua":                     {-1.0370, -78.5595},
	"Zamora Chinchipe":               {-4.0667, -78.9529},
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest, keeping diacritics: "los ríos" → "Los Ríos".
func TitleCase(s string) string {
	// A Caser is stateful; build one per call.
	return cases.Title(language.Spanish).String(s)
}

type gazetteerEntry struct {
	name   string
	coords Coordinates
}

// Gazetteer resolves province names to coordinates. It is immutable after
// construction and safe for concurrent use.
type Gazetteer struct {
	byTitle map[string]gazetteerEntry
}

// NewGazetteer indexes the given provinces by their title-cased name.
func NewGazetteer(provinces map[string]Coordinates) *Gazetteer {
	g := &Gazetteer{byTitle: make(map[string]gazetteerEntry, len(provinces))}
	for name, c := range provinces {
		g.byTitle[TitleCase(name)] = gazetteerEntry{name: name, coords: c}
	}
	return g
}

// EcuadorGazetteer returns the gazetteer of Ecuador's 24 provinces.
func EcuadorGazetteer() *Gazetteer {
	return NewGazetteer(ecuadorProvinces)
}

// Lookup title-cases token and returns the canonical province name and its
// coordinates. Unknown provinces report false.
func (g *Gazetteer) Lookup(token string) (string, Coordinates, bool) {
	e, ok := g.byTitle[TitleCase(strings.TrimSpace(token))]
	if !ok {
		return "", Coordinates{}, false
	}
	return e.name, e.coords, true
}

// Names returns the canonical province names in alphabetical order.
func (g *Gazetteer) Names() []string {
	names := make([]string, 0, len(g.byTitle))
	for _, e := range g.byTitle {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Locate splits a comma-separated province field and returns one point per
// recognised province, tagged with project. Unknown tokens are dropped.
func (g *Gazetteer) Locate(field, project string) []models.MapPoint {
	var points []models.MapPoint
	for _, token := range strings.Split(field, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		name, c, ok := g.Lookup(token)
		if !ok {
			continue
		}
		points = append(points, models.MapPoint{
			Province: name,
			Lat:      c.Lat,
			Lon:      c.Lon,
			Project:  project,
		})
	}
	return points
}
