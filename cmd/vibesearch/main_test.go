package main

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/vibesearch/internal/config"
	"github.com/kailas-cloud/vibesearch/internal/domain/geo"
	vibesearch "github.com/kailas-cloud/vibesearch/pkg/sdk"
)

func parseFilters(t *testing.T, args ...string) *vibesearch.Filters {
	t.Helper()
	var got *vibesearch.Filters
	cmd := &cli.Command{
		Name:  "search",
		Flags: searchCommand().Flags,
		Action: func(_ context.Context, c *cli.Command) error {
			got = filtersFromFlags(c)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"search"}, args...)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return got
}

func TestFiltersFromFlags(t *testing.T) {
	f := parseFilters(t, "--min-beds", "2", "--max-rent", "3000", "--city", "Austin", "--studio")

	if f.MinBeds == nil || *f.MinBeds != 2 {
		t.Errorf("MinBeds = %v, want 2", f.MinBeds)
	}
	if f.MaxRent == nil || *f.MaxRent != 3000 {
		t.Errorf("MaxRent = %v, want 3000", f.MaxRent)
	}
	if f.City != "Austin" || !f.Studio {
		t.Errorf("City = %q, Studio = %v", f.City, f.Studio)
	}
	if f.MaxBeds != nil || f.MinRent != nil {
		t.Error("unset flags must stay nil")
	}
}

func TestFiltersFromFlags_ZeroIsSet(t *testing.T) {
	f := parseFilters(t, "--min-baths", "0")
	if f.MinBaths == nil || *f.MinBaths != 0 {
		t.Errorf("MinBaths = %v, want explicit 0", f.MinBaths)
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	if _, err := openStore(config.DatabaseConfig{Driver: "mongo"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	s, err := openStore(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestNewGeocoder(t *testing.T) {
	box := newGeocoder(config.GeocoderConfig{
		Strategy: "uniform_box", MinLat: 10, MaxLat: 11, MinLng: 20, MaxLng: 21,
	})
	for range 50 {
		p := box.Locate()
		if p.Lat < 10 || p.Lat > 11 || p.Lng < 20 || p.Lng > 21 {
			t.Fatalf("point %+v outside box", p)
		}
	}

	jitter := newGeocoder(config.GeocoderConfig{
		Strategy: "city_jitter", CenterLat: 37.77, CenterLng: -122.42, RadiusDeg: 0.05,
	})
	if _, ok := jitter.(*geo.CityJitter); !ok {
		t.Fatalf("geocoder = %T, want *geo.CityJitter", jitter)
	}
	p := jitter.Locate()
	if p.Lat < 37.71 || p.Lat > 37.83 {
		t.Errorf("jittered lat %v too far from center", p.Lat)
	}
}
