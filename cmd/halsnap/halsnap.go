package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hypermedia-labs/halstore/pkg/halstore"
)

const (
	appName string = "halsnap"
)

// halsnap walks a HAL collection, materializing every resource that the
// datastore touches (members, embedded resources and requested include
// targets), and snapshots them into a Postgres table for offline use.
func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	cfg := LoadConfiguration(ctx)

	log.Debug("begin snapshot", slog.String("source", cfg.sourceURL), slog.String("type", cfg.modelType))

	p, err := connect(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "err", err.Error())
		os.Exit(1)
	}
	defer p.Close()

	err = ensureTable(ctx, p)
	if err != nil {
		log.Error("failed to create snapshot table", "err", err.Error())
		os.Exit(1)
	}

	ds := halstore.New(cfg.sourceURL, halstore.WithRoute(cfg.modelType, cfg.route))

	doc, err := ds.FindAll(ctx, cfg.modelType)
	if err != nil {
		log.Error("failed to fetch collection", "err", err.Error())
		os.Exit(1)
	}

	for _, m := range doc.Models() {
		if err = ds.ResolveIncludes(ctx, m, cfg.includes...); err != nil {
			log.Error("failed to resolve includes", "err", err.Error())
			os.Exit(1)
		}
	}

	var totalCount int64 = 0
	snappedAt := time.Now().UTC()

	ds.Store().ForEach(func(identifier string, e halstore.Entity) {
		m, ok := e.(*halstore.Model)
		if !ok {
			return
		}

		body, marshalErr := json.Marshal(m.Resource())
		if marshalErr != nil {
			log.Error("failed to marshal resource", slog.String("identifier", identifier), "err", marshalErr.Error())
			return
		}

		if upsertErr := upsert(ctx, p, identifier, m.Type(), body, snappedAt); upsertErr != nil {
			log.Error("failed to store resource", slog.String("identifier", identifier), "err", upsertErr.Error())
			return
		}

		totalCount++
	})

	log.Info("done", slog.Int64("total", totalCount))
}

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string

	sourceURL string
	modelType string
	route     string
	includes  []string
}

func LoadConfiguration(ctx context.Context) Config {
	includes := env.GetVariableOrDefault(ctx, "SNAP_INCLUDES", "")

	cfg := Config{
		host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		user:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		dbname:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "halstore"),
		sslmode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),

		sourceURL: env.GetVariableOrDefault(ctx, "SNAP_SOURCE_URL", "http://localhost:8080"),
		modelType: env.GetVariableOrDefault(ctx, "SNAP_TYPE", "book"),
		route:     env.GetVariableOrDefault(ctx, "SNAP_ROUTE", "/books"),
	}

	if includes != "" {
		cfg.includes = strings.Split(includes, ",")
	}

	return cfg
}

func (c Config) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

func connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = conn.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return conn, err
}

func ensureTable(ctx context.Context, p *pgxpool.Pool) error {
	sql := `
		CREATE TABLE IF NOT EXISTS resources (
			identifier TEXT PRIMARY KEY,
			model_type TEXT NOT NULL,
			body JSONB NOT NULL,
			snapped_at TIMESTAMPTZ NOT NULL
		);`

	_, err := p.Exec(ctx, sql)
	return err
}

func upsert(ctx context.Context, p *pgxpool.Pool, identifier, modelType string, body []byte, snappedAt time.Time) error {
	sql := `
		INSERT INTO resources (identifier, model_type, body, snapped_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier) DO UPDATE
		SET model_type = $2, body = $3, snapped_at = $4;`

	_, err := p.Exec(ctx, sql, identifier, modelType, body, snappedAt)
	return err
}
