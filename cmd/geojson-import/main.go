package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/config"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/db"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/fields"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/logging"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	filePath   = flag.String("file", "", "Path to a GeoJSON FeatureCollection of field boundaries (required)")
	nameProp   = flag.String("name-property", "name", "Feature property holding the field name")
	dsn        = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	dryRun     = flag.Bool("dry-run", false, "Validate and preview areas only; no DB writes")
	checkRange = flag.Bool("check-range", false, "Reject coordinates outside lon [-180,180] / lat [-90,90]")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *filePath == "" {
		fatalf("--file is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		fatalf("open: %v", err)
	}
	features, err := loadFeatures(f)
	f.Close()
	if err != nil {
		fatalf("%v", err)
	}

	codec := geometry.Codec{CheckRange: *checkRange}
	rows := plan(features, *nameProp, codec)
	fmt.Printf("Loaded %d features from %s (%d valid)\n", len(rows), *filePath, countValid(rows))

	if *dryRun {
		for _, r := range rows {
			if r.Err != nil {
				fmt.Printf("  #%d  REJECT  %v\n", r.Index, r.Err)
				continue
			}
			fmt.Printf("  #%d  %-30s  ~%.0f m^2 (%.2f ha)\n", r.Index, r.Name, r.AreaM2, r.AreaM2/1e4)
		}
		fmt.Println("Dry run complete; no rows written.")
		return
	}

	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	log, err := logging.New("info", "console")
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	cfg.DatabaseURL = *dsn
	cfg.DBMaxConns = 2

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := db.Connect(ctx, cfg, log)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer func() { _ = db.Close(conn) }()

	if err := fields.Init(conn); err != nil {
		fatalf("init: %v", err)
	}

	repo := fields.NewRepository(spatial.NewGateway(conn, spatial.WithLogger(log.Named("spatial"))), codec)

	var inserted, failed int
	for _, r := range rows {
		if r.Err != nil {
			log.Warn("skipping feature", zap.Int("index", r.Index), zap.Error(r.Err))
			failed++
			continue
		}
		id, err := repo.Create(ctx, r.Name, r.Boundary)
		if err != nil {
			log.Error("insert failed", zap.Int("index", r.Index), zap.String("name", r.Name), zap.Error(err))
			failed++
			continue
		}
		log.Info("field imported", zap.Int64("id", id), zap.String("name", r.Name))
		inserted++
	}

	fmt.Printf("Imported %d fields, %d failed\n", inserted, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
