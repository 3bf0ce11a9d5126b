package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"luxrent/internal/app/commands"
	availabilityapp "luxrent/internal/app/handlers/availability"
	bookingapp "luxrent/internal/app/handlers/booking"
	quotesapp "luxrent/internal/app/handlers/quotes"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/middleware"
	appoutbox "luxrent/internal/app/outbox"
	"luxrent/internal/app/queries"
	"luxrent/internal/app/uow"
	"luxrent/internal/infra/broker/kafka"
	"luxrent/internal/infra/config"
	mongostore "luxrent/internal/infra/db/mongo"
	ginserver "luxrent/internal/infra/http/gin"
	"luxrent/internal/infra/inbox"
	"luxrent/internal/infra/obs"
	infraoutbox "luxrent/internal/infra/outbox"
	"luxrent/internal/infra/scheduler"
	"luxrent/internal/infra/storage/memory"
)

const bookingTopicBase = "booking"

// storage is the persistence side of the application for one storage mode.
type storage struct {
	factory uow.UoWFactory
	outbox  appoutbox.Outbox
	source  infraoutbox.Source
	idemp   middleware.IdempotencyStore
	inbox   kafka.Inbox
	checks  map[string]obs.Check
	closers []func(context.Context) error
}

type application struct {
	commands  commands.Bus
	queries   queries.Bus
	handlers  ginserver.Handlers
	checks    map[string]obs.Check
	worker    *infraoutbox.Worker
	consumer  *kafka.Consumer
	topics    []string
	scheduler *scheduler.Scheduler
	closers   []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	var (
		store *storage
		err   error
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		store, err = mongoStorage(ctx, cfg, logger)
	default:
		store, err = memoryStorage(ctx, cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	clock := support.Clock{Location: cfg.BookingTimezone}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.Register(commandBus, &bookingapp.RequestBookingHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	commands.Register(commandBus, &bookingapp.AcceptRequestHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	commands.Register(commandBus, &bookingapp.RejectRequestHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	commands.Register(commandBus, &bookingapp.ExpireRequestsHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	commands.Register(commandBus, &bookingapp.ApplyDecisionHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})

	logger.Debug("command routes", "routes", commandBus.Routes())

	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, &availabilityapp.GetCalendarHandler{
		UoWFactory: store.factory, Clock: clock, Logger: logger,
	})
	queries.Register(queryBus, &quotesapp.GetQuoteHandler{
		UoWFactory: store.factory, Clock: clock, Logger: logger,
	})
	queries.Register(queryBus, &bookingapp.GetRequestHandler{
		UoWFactory: store.factory,
	})

	validate := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validate),
		middleware.Idempotency(store.idemp, nil),
		middleware.Transaction(store.factory, middleware.RetryOnConflict(cfg.ConflictRetries)),
		middleware.OutboxFlush(store.outbox, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation(validate))

	app := &application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Cars:    ginserver.CarHandler{Queries: queryBusWithMiddleware},
			Booking: ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		},
		checks:  store.checks,
		closers: store.closers,
	}

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("luxrent"), logger)
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = kp
		app.closers = append(app.closers, func(context.Context) error { return kp.Close() })

		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig("luxrent"), &kafka.DecisionHandler{
			Commands: commandBusWithMiddleware,
			Inbox:    store.inbox,
			Logger:   logger,
		}, logger)
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.consumer = consumer
		app.topics = []string{infraoutbox.TopicFor(cfg.KafkaTopicPrefix, bookingTopicBase)}
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	}
	app.worker = &infraoutbox.Worker{
		Store:       store.source,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	app.scheduler = scheduler.New(cfg.BookingTimezone, logger)
	if cfg.RequestExpirySchedule != "" {
		err := app.scheduler.Register("expire-requests", cfg.RequestExpirySchedule, func(ctx context.Context) error {
			res, err := commands.Dispatch[bookingapp.ExpireRequestsCommand, *bookingapp.ExpireRequestsResult](ctx, commandBusWithMiddleware, bookingapp.ExpireRequestsCommand{})
			if err != nil {
				return err
			}
			if len(res.Expired) > 0 {
				logger.Info("stale booking requests expired", "count", len(res.Expired))
			}
			return nil
		})
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("schedule request expiry: %w", err)
		}
	}
	return app, nil
}

func (a *application) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

func memoryStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	cars := memory.NewCarRepository()
	box := memory.NewOutbox()
	factory := &memory.Factory{
		CarsRepo:     cars,
		RequestsRepo: memory.NewRequestRepository(),
		Outbox:       box,
	}
	path := cfg.CarsFixtures
	if path == "" {
		path = defaultCarFixturesPath()
	}
	n, err := memory.SeedCars(ctx, cars, path, logger)
	if err != nil {
		return nil, fmt.Errorf("seed cars from %s: %w", path, err)
	}
	logger.Info("car fixtures loaded", "path", path, "count", n)

	return &storage{
		factory: factory,
		outbox:  box,
		source:  box,
		idemp:   memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		inbox:   memory.NewInbox(),
		checks:  map[string]obs.Check{},
	}, nil
}

func mongoStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	closers := []func(context.Context) error{client.Close}
	fail := func(err error) (*storage, error) {
		_ = client.Close(ctx)
		return nil, err
	}

	requests, err := mongostore.NewRequestRepository(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo requests: %w", err))
	}
	idemp, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	box, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return fail(fmt.Errorf("mongo inbox: %w", err))
	}
	logger.Info("mongo storage ready", "database", cfg.MongoDB)

	return &storage{
		factory: mongostore.Factory{
			DB:           client.DB,
			CarsRepo:     mongostore.NewCarRepository(client.DB),
			RequestsRepo: requests,
		},
		outbox:  box,
		source:  box,
		idemp:   idemp,
		inbox:   seen,
		checks:  map[string]obs.Check{"mongo": client.Ping},
		closers: closers,
	}, nil
}

func defaultCarFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "cars.yaml"),
		filepath.Join("..", "..", "data", "cars.yaml"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
