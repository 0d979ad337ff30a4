// Package initializer builds the infrastructure dependency graph once at
// process startup.
package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pennyflow/pennyflow/infra"
	infraeventbus "github.com/pennyflow/pennyflow/infra/eventbus"
	infrainsights "github.com/pennyflow/pennyflow/infra/insights"
	infranotification "github.com/pennyflow/pennyflow/infra/notification"
	infrarepo "github.com/pennyflow/pennyflow/infra/repository"
	"github.com/pennyflow/pennyflow/pkg/app"
	"github.com/pennyflow/pennyflow/pkg/config"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
	"github.com/pennyflow/pennyflow/pkg/insights"
)

// InitializeDependencies opens the database, selects the event transport
// and assembles every dependency the app composes over.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("initializer: database connection: %w", err)
	}
	if err := infra.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("initializer: migrate: %w", err)
	}

	bus, err := newBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	var gen insights.Generator
	if cfg.Insights.Enabled {
		gen = infrainsights.NewGeminiGenerator(cfg.Insights.Model)
	}

	return &app.Deps{
		Uow:      infrarepo.NewUoW(db),
		Bus:      bus,
		Notifier: infranotification.NewLogNotifier(logger),
		Insights: gen,
		Logger:   logger,
	}, nil
}

func newBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	switch strings.ToLower(cfg.Bus.Driver) {
	case "", "memory":
		return infraeventbus.NewWithMemory(logger), nil
	case "redis":
		return infraeventbus.NewWithRedis(cfg.Bus.RedisURL, cfg.Bus.RedisStream, cfg.Bus.RedisGroup, logger)
	case "kafka":
		return infraeventbus.NewWithKafka(cfg.Bus.KafkaBrokers, logger, infraeventbus.DefaultKafkaBusConfig())
	default:
		return nil, fmt.Errorf("initializer: unknown event bus driver %q", cfg.Bus.Driver)
	}
}
