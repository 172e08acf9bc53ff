package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/config"
	dbRedis "github.com/kailas-cloud/docset/internal/db/redis"
	"github.com/kailas-cloud/docset/internal/metrics"
	documentrepo "github.com/kailas-cloud/docset/internal/repository/document"
	documentuc "github.com/kailas-cloud/docset/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docset/internal/usecase/query"
)

// App is the assembled runtime shared by the server and the CLI.
type App struct {
	Store     *dbRedis.Store
	Bindings  []Binding
	Query     *queryuc.Service
	Documents *documentuc.Service
	Health    *healthuc.Service
}

// Open connects to the database, ensures every model index and builds the services.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Database.Addrs,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		DB:          cfg.Database.DB,
		ClientName:  cfg.Database.ClientName,
		DialTimeout: time.Duration(cfg.Database.DialTimeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	metrics.RegisterQueryMetrics()

	repo := documentrepo.New(store, cfg.Storage.KeyPrefix).WithReindex(cfg.Storage.Reindex)
	collections := make(map[string]*documentrepo.Collection)
	collection := func(name string) docset.Collection {
		col, ok := collections[name]
		if !ok {
			col = repo.Collection(name)
			collections[name] = col
		}
		return col
	}

	bindings, err := BuildModels(cfg.Models, collection, cfg.Query.DefaultBatchSize, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	indexes := make(map[string]string, len(bindings))
	for _, b := range bindings {
		col := collections[b.Collection]
		if err := col.EnsureIndex(ctx, b.Schema); err != nil {
			store.Close()
			return nil, fmt.Errorf("model %s: ensure index: %w", b.Model.Name(), err)
		}
		indexes[b.Model.Name()] = col.Index()
		logger.Info("Model ready",
			zap.String("model", b.Model.Name()),
			zap.String("index", col.Index()),
			zap.Strings("scopes", b.Model.Scopes()),
		)
	}

	query := queryuc.New(Models(bindings), logger).WithMaxLimit(cfg.Query.MaxLimit)
	health := healthuc.New(store, store, indexes)

	return &App{
		Store:     store,
		Bindings:  bindings,
		Query:     query,
		Documents: documentuc.New(query, logger),
		Health:    health,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() {
	a.Store.Close()
}
