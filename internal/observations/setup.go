package observations

import (
	"fmt"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/db"
	"gorm.io/gorm"
)

// Init makes sure PostGIS is installed and the observations table (with its
// field_id index) exists.
func Init(d *gorm.DB) error {
	if err := db.EnsurePostGIS(d); err != nil {
		return fmt.Errorf("ensure postgis: %w", err)
	}
	if err := d.AutoMigrate(&Observation{}); err != nil {
		return fmt.Errorf("migrate observations: %w", err)
	}
	return nil
}
