// Package spatial is the only code that talks to PostGIS. It stamps every
// geometry with an SRID on the way in and converts geometry back to GeoJSON
// text on the way out.
package spatial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gateway issues single-statement writes and bounded reads against a pooled
// gorm handle. It holds no state of its own beyond configuration, so one
// Gateway is shared by every request.
type Gateway struct {
	db      *gorm.DB
	srid    int
	log     *zap.Logger
	metrics *Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSRID overrides the default SRID (4326).
func WithSRID(srid int) Option { return func(g *Gateway) { g.srid = srid } }

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) Option { return func(g *Gateway) { g.log = l } }

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option { return func(g *Gateway) { g.metrics = m } }

func NewGateway(db *gorm.DB, opts ...Option) *Gateway {
	g := &Gateway{db: db, srid: DefaultSRID, log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// InsertWithGeometry writes one row whose geometry column is converted from
// GeoJSON and tagged with the SRID. Attributes and geometry commit together
// or not at all.
func (g *Gateway) InsertWithGeometry(ctx context.Context, ins Insert) (int64, error) {
	if ins.GeoJSON == nil || *ins.GeoJSON == "" {
		return 0, &StoreError{Op: "insert " + ins.Table, Err: errors.New("geometry is required")}
	}
	return g.insert(ctx, ins)
}

// InsertWithOptionalGeometry is InsertWithGeometry, except that a nil GeoJSON
// stores NULL in the geometry column.
func (g *Gateway) InsertWithOptionalGeometry(ctx context.Context, ins Insert) (int64, error) {
	if ins.GeoJSON != nil && *ins.GeoJSON == "" {
		ins.GeoJSON = nil
	}
	return g.insert(ctx, ins)
}

func (g *Gateway) insert(ctx context.Context, ins Insert) (id int64, err error) {
	op := "insert " + ins.Table
	start := time.Now()
	defer func() { g.metrics.observe(op, start, err) }()

	srid := g.srid
	if ins.SRID != 0 {
		srid = ins.SRID
	}
	stmt, args, err := buildInsert(ins, srid)
	if err != nil {
		return 0, storeErr(op, err)
	}

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ref := ins.Requires; ref != nil && ref.ID != nil {
			res := tx.Raw(buildExists(*ref), ref.ID).Scan(new(int))
			if res.Error != nil {
				return fmt.Errorf("check %s reference: %w", ref.Table, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s %v", ErrReferenceNotFound, ref.Table, ref.ID)
			}
		}
		if err := tx.Raw(stmt, args...).Row().Scan(&id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		g.log.Debug("insert failed", zap.String("table", ins.Table), zap.Error(err))
		return 0, storeErr(op, err)
	}
	return id, nil
}

// QueryGeoJSON runs a bounded select and scans the rows into dest, which must
// be a pointer to a slice of structs. Geometry columns arrive as GeoJSON text
// (or NULL), never as binary.
func (g *Gateway) QueryGeoJSON(ctx context.Context, q Query, dest any) (err error) {
	op := "select " + q.From
	start := time.Now()
	defer func() { g.metrics.observe(op, start, err) }()

	stmt, err := buildSelect(q)
	if err != nil {
		return storeErr(op, err)
	}
	if err := g.db.WithContext(ctx).Raw(stmt).Scan(dest).Error; err != nil {
		return storeErr(op, err)
	}
	return nil
}

// Health is the result of a store round trip.
type Health struct {
	DB      int
	PostGIS string
}

// Health checks connectivity and that the PostGIS extension is installed.
func (g *Gateway) Health(ctx context.Context) (h Health, err error) {
	start := time.Now()
	defer func() { g.metrics.observe("health", start, err) }()

	row := g.db.WithContext(ctx).Raw("SELECT 1, postgis_version()").Row()
	if err := row.Scan(&h.DB, &h.PostGIS); err != nil {
		return Health{}, storeErr("health", err)
	}
	return h, nil
}
