package services

import "testing"

func TestGazetteerLookup(t *testing.T) {
	g := EcuadorGazetteer()

	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"Pichincha", "Pichincha", true},
		{"pichincha", "Pichincha", true},
		{"  AZUAY ", "Azuay", true},
		{"los ríos", "Los Ríos", true},
		{"EL ORO", "El Oro", true},
		{"santo domingo de los tsáchilas", "Santo Domingo de los Tsáchilas", true},
		{"Santo Domingo de los Tsáchilas", "Santo Domingo de los Tsáchilas", true},
		{"Santo Domingo De Los Tsáchilas", "Santo Domingo de los Tsáchilas", true},
		{"Los Rios", "", false},
		{"Buenos Aires", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		name, _, ok := g.Lookup(tt.token)
		if ok != tt.ok || name != tt.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.token, name, ok, tt.want, tt.ok)
		}
	}
}

func TestGazetteerHasAllProvinces(t *testing.T) {
	if n := len(EcuadorGazetteer().Names()); n != 24 {
		t.Errorf("provinces: got %d, want 24", n)
	}
}

func TestLocateSplitsProvinces(t *testing.T) {
	g := EcuadorGazetteer()

	points := g.Locate("Pichincha, Azuay", "Reforestación")
	if len(points) != 2 {
		t.Fatalf("points: got %d, want 2", len(points))
	}
	for _, p := range points {
		if p.Project != "Reforestación" {
			t.Errorf("point %s tagged %q, want %q", p.Province, p.Project, "Reforestación")
		}
	}
	if points[0].Province != "Pichincha" || points[1].Province != "Azuay" {
		t.Errorf("order: got %s, %s", points[0].Province, points[1].Province)
	}
	if points[0].Lat != -0.2295 || points[0].Lon != -78.5243 {
		t.Errorf("Pichincha coordinates: got (%v, %v)", points[0].Lat, points[0].Lon)
	}
}

func TestLocateDropsUnknownAndEmptyTokens(t *testing.T) {
	g := EcuadorGazetteer()

	tests := []struct {
		field string
		want  int
	}{
		{"", 0},
		{",,", 0},
		{"Narnia", 0},
		{"Narnia, loja,", 1},
		{"Guayas,Guayas", 2},
	}

	for _, tt := range tests {
		if got := len(g.Locate(tt.field, "P")); got != tt.want {
			t.Errorf("Locate(%q): got %d points, want %d", tt.field, got, tt.want)
		}
	}
}
