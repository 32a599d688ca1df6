package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/c3foc/hagrid/internal/app"
	"github.com/c3foc/hagrid/internal/clock"
	"github.com/c3foc/hagrid/internal/config"
	"github.com/c3foc/hagrid/internal/eventbus"
	"github.com/c3foc/hagrid/internal/storage/postgres"
)

// runtime is the wired-up application a command runs against.
type runtime struct {
	cfg  config.Config
	pool *pgxpool.Pool
	repo *postgres.Repository
	clk  clock.Clock
	bus  *eventbus.RabbitMQPublisher
}

func newRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rt := &runtime{
		cfg:  cfg,
		pool: pool,
		repo: postgres.NewRepository(pool),
		clk:  clock.NewSystem(),
	}

	if cfg.PublishesEnabled && cfg.RabbitMQURL != "" {
		bus, err := eventbus.NewRabbitMQPublisher(cfg)
		if err != nil {
			// The broker is optional; counting must keep working without it.
			log.Warn().Err(err).Msg("event bus unavailable, continuing without publishing")
		} else {
			rt.bus = bus
		}
	}

	return rt, nil
}

func (rt *runtime) close() {
	if rt.bus != nil {
		rt.bus.Close()
	}
	rt.pool.Close()
}

func (rt *runtime) assignmentService() *app.AssignmentService {
	var publisher app.Publisher = eventbus.Noop{}
	if rt.bus != nil {
		publisher = rt.bus
	}
	return app.NewAssignmentService(rt.repo, rt.clk, app.WithPublisher(publisher))
}

func (rt *runtime) overviewService() *app.OverviewService {
	return app.NewOverviewService(rt.repo, rt.clk)
}

func (rt *runtime) scheduleService() *app.ScheduleService {
	return app.NewScheduleService(rt.repo, rt.clk)
}

func (rt *runtime) forecastService() *app.ForecastService {
	return app.NewForecastService(rt.repo, rt.clk)
}
