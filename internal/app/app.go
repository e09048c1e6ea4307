package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/api/handlers"
	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/internal/repository/memory"
	"github.com/joshnavoa/zakeke/internal/repository/postgres"
	redisrepo "github.com/joshnavoa/zakeke/internal/repository/redis"
	"github.com/joshnavoa/zakeke/internal/repository/supabase"
	"github.com/joshnavoa/zakeke/internal/service"
	"github.com/joshnavoa/zakeke/internal/zakeke"
)

// App holds the wired repositories and services shared by the server and
// the command line tools
type App struct {
	Repos   *repository.Repositories
	Catalog *catalog.Source
	Deps    *handlers.Deps

	db      *sql.DB
	closers []func() error
	logger  *zap.Logger
}

// New opens the configured backing store (and Redis when REDIS_URL is set)
// and wires the catalog, the Zakeke client and the cart relay around it
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = memory.NewRepositories(store)
	if a.db != nil {
		a.Repos.Idempotency = postgres.NewIdempotencyRepository(a.db, logger)
	}

	if cfg.RedisURL != "" {
		client, err := redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.Repos.Customizable = redisrepo.NewCustomizableSet(client, redisrepo.DefaultKey)
		logger.Info("Customizable set stored in Redis", zap.String("key", redisrepo.DefaultKey))
	}

	a.Catalog = catalog.NewSource(store, catalog.SourceOptions{
		DefaultCurrency:  cfg.Catalog.DefaultCurrency,
		CustomizableMode: cfg.Catalog.CustomizableMode,
		Customizable:     a.Repos.Customizable,
	}, logger)

	client := zakeke.NewClient(cfg.Zakeke.APIURL, cfg.Zakeke.APIKey, cfg.Zakeke.TenantID, logger)
	a.Deps = &handlers.Deps{
		Repos:   a.Repos,
		Catalog: a.Catalog,
		Cart:    service.NewCartService(a.Repos, a.Catalog, client, cfg.Catalog.DefaultCurrency, logger),
	}
	if cfg.Zakeke.APIKey != "" {
		a.Deps.Zakeke = client
	} else {
		logger.Warn("ZAKEKE_API_KEY not set, Zakeke upstream calls are disabled")
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (repository.ProductStore, error) {
	switch cfg.Store.Driver {
	case domain.StoreDriverSupabase:
		store, err := supabase.NewProductStore(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Store.ProductsTable, cfg.Store.VariantsTable, a.logger)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Catalog store: supabase", zap.String("url", cfg.Supabase.URL), zap.String("table", cfg.Store.ProductsTable))
		return store, nil

	case domain.StoreDriverPostgres:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		a.logger.Info("Catalog store: postgres", zap.String("host", cfg.Database.Host), zap.String("table", cfg.Store.ProductsTable))
		return postgres.NewProductStore(db, cfg.Store.ProductsTable, cfg.Store.VariantsTable, a.logger), nil

	case domain.StoreDriverMemory:
		if cfg.Store.SeedFile == "" {
			a.logger.Info("Catalog store: memory (empty)")
			return memory.NewProductStore(cfg.Store.ProductsTable), nil
		}
		store, err := memory.LoadSeedFile(cfg.Store.SeedFile, cfg.Store.ProductsTable)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Catalog store: memory", zap.String("seed_file", cfg.Store.SeedFile))
		return store, nil

	case domain.StoreDriverNone:
		a.logger.Warn("No catalog store configured, product routes will return empty results")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Close releases the database and Redis connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
