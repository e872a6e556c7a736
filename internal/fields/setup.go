package fields

import (
	"fmt"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/db"
	"gorm.io/gorm"
)

// Init makes sure PostGIS is installed and the fields table exists.
func Init(d *gorm.DB) error {
	if err := db.EnsurePostGIS(d); err != nil {
		return fmt.Errorf("ensure postgis: %w", err)
	}
	if err := d.AutoMigrate(&Field{}); err != nil {
		return fmt.Errorf("migrate fields: %w", err)
	}
	return nil
}
