package cmd

import (
	"context"
	"fmt"
	"time"

	"matchbook/config"
	"matchbook/database"
	"matchbook/events"
	"matchbook/metrics"
	"matchbook/repository"
	"matchbook/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting matchbook...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeMetrics(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	bettingService := service.NewBettingService(uowFactory, cfg.MaxBetPerMatch, cfg.CancellationWindow, cfg.HouseCutPercent)
	ratingService := service.NewRatingService(uowFactory, cfg.BaseMMR, cfg.MMRStep)
	scrimService := service.NewScrimService(uowFactory, cfg.BaseMMR, cfg.MMRStep)
	log.Info("Services initialized")

	// Start the metrics/health server
	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	app := &App{
		Users:   userService,
		Betting: bettingService,
		Ratings: ratingService,
		Scrims:  scrimService,
	}

	matches, err := app.Betting.ListOpenMatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open matches: %w", err)
	}
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"openMatches": len(matches),
	}).Info("Matchbook is running")
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics server")
	}

	db.Close()
	log.Info("Shutdown completed")

	return nil
}

// App bundles the core services handed to the command front-end.
type App struct {
	Users   service.UserService
	Betting service.BettingService
	Ratings service.RatingService
	Scrims  service.ScrimService
}

// subscribeMetrics drives the Prometheus counters from domain events.
func subscribeMetrics(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, event events.Event) {
		metrics.UsersCreated.Inc()
	})
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BetPlacedEvent); ok {
			metrics.BetsPlaced.WithLabelValues(e.Side).Inc()
		}
	})
	bus.Subscribe(events.EventTypeBetCancelled, func(ctx context.Context, event events.Event) {
		metrics.BetsCancelled.Inc()
	})
	bus.Subscribe(events.EventTypeMatchSettled, func(ctx context.Context, event events.Event) {
		metrics.MatchesSettled.Inc()
		if e, ok := event.(events.MatchSettledEvent); ok {
			metrics.PointsPaidOut.Add(float64(e.TotalPaid))
		}
	})
	bus.Subscribe(events.EventTypeScrimRecorded, func(ctx context.Context, event events.Event) {
		metrics.ScrimsRecorded.Inc()
	})
}
