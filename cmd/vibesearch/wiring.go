package main

import (
	"fmt"

	"github.com/kailas-cloud/vibesearch/internal/config"
	"github.com/kailas-cloud/vibesearch/internal/db"
	dbRedis "github.com/kailas-cloud/vibesearch/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/vibesearch/internal/db/sqlite"
	"github.com/kailas-cloud/vibesearch/internal/domain/geo"
)

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(config.GetEnv())
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSQLite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newGeocoder(g config.GeocoderConfig) geo.FallbackGeocoder {
	if g.Strategy == "uniform_box" {
		return geo.NewUniformBox(geo.BoundingBox{
			South: g.MinLat, West: g.MinLng, North: g.MaxLat, East: g.MaxLng,
		}, nil)
	}
	return geo.NewCityJitter(geo.Point{Lat: g.CenterLat, Lng: g.CenterLng}, g.RadiusDeg, nil)
}
