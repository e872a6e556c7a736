package db

import "gorm.io/gorm"

// EnsurePostGIS installs the PostGIS extension if it is missing. Geometry
// columns, ST_GeomFromGeoJSON and geography area all depend on it.
func EnsurePostGIS(d *gorm.DB) error {
	return d.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error
}
