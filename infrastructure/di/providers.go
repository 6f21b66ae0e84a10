package di

import (
	"context"
	"database/sql"
	"fmt"

	"ideaforge/application/commands"
	"ideaforge/application/commands/bus"
	commandhandlers "ideaforge/application/commands/handlers"
	"ideaforge/application/ports"
	"ideaforge/application/queries"
	querybus "ideaforge/application/queries/bus"
	queryhandlers "ideaforge/application/queries/handlers"
	"ideaforge/application/services"
	domainconfig "ideaforge/domain/config"
	"ideaforge/domain/core/validators"
	"ideaforge/domain/versioning"
	"ideaforge/infrastructure/config"
	"ideaforge/infrastructure/embedding"
	"ideaforge/infrastructure/llm"
	"ideaforge/infrastructure/messaging/localbus"
	memstore "ideaforge/infrastructure/persistence/memory"
	"ideaforge/infrastructure/persistence/sqlite"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
	"ideaforge/pkg/tokens"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideDomainConfig selects the business rule set for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := domainCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain configuration: %w", err)
	}
	return domainCfg, nil
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("ideaforge")
}

// Storage bundles the persistence ports for one configured driver so
// the rest of the graph stays driver-agnostic.
type Storage struct {
	Conversations ports.ConversationRepository
	Chunks        ports.ChunkIndex
	Snapshots     ports.SnapshotStore
	Events        ports.EventStore
	UnitOfWork    ports.UnitOfWork

	db *sql.DB
}

// Close releases the underlying database handle, if any
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the backing database is reachable. The memory driver
// always reports healthy.
func (s *Storage) Ping(ctx context.Context) error {
	if s.db != nil {
		return s.db.PingContext(ctx)
	}
	return nil
}

// ProvideStorage opens the configured storage driver and runs migrations
func ProvideStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case "memory":
		conversations := memstore.NewConversationRepository()
		snapshots := memstore.NewSnapshotStore()
		events := memstore.NewEventStore()
		return &Storage{
			Conversations: conversations,
			Chunks:        memstore.NewChunkIndex(),
			Snapshots:     snapshots,
			Events:        events,
			UnitOfWork:    memstore.NewUnitOfWork(conversations, snapshots, events),
		}, nil

	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := sqlite.Migrate(ctx, db, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &Storage{
			Conversations: sqlite.NewConversationRepository(db),
			Chunks:        sqlite.NewChunkIndex(db),
			Snapshots:     sqlite.NewSnapshotStore(db),
			Events:        sqlite.NewEventStore(db),
			UnitOfWork:    sqlite.NewUnitOfWork(db, logger),
			db:            db,
		}, nil
	}
}

// ProvideConversationRepository extracts the conversation repository
func ProvideConversationRepository(storage *Storage) ports.ConversationRepository {
	return storage.Conversations
}

// ProvideChunkIndex extracts the chunk index
func ProvideChunkIndex(storage *Storage) ports.ChunkIndex {
	return storage.Chunks
}

// ProvideSnapshotStore extracts the snapshot store
func ProvideSnapshotStore(storage *Storage) ports.SnapshotStore {
	return storage.Snapshots
}

// ProvideEventStore extracts the event store
func ProvideEventStore(storage *Storage) ports.EventStore {
	return storage.Events
}

// ProvideUnitOfWork extracts the unit of work
func ProvideUnitOfWork(storage *Storage) ports.UnitOfWork {
	return storage.UnitOfWork
}

// ProvideProviderRegistry loads the generation provider registry
func ProvideProviderRegistry(cfg *config.Config, logger *zap.Logger) (*config.ProviderRegistry, error) {
	return config.NewProviderRegistry(cfg.ProvidersFile, logger)
}

// ProvideProviderCatalog exposes the registry through its port
func ProvideProviderCatalog(registry *config.ProviderRegistry) ports.ProviderCatalog {
	return registry
}

// ProvideGenerationClient creates the question-generation backend client
func ProvideGenerationClient(
	catalog ports.ProviderCatalog,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) ports.GenerationClient {
	return llm.NewOpenAIClient(
		catalog,
		cfg.GenerationAPIKey,
		cfg.GenerationTimeout,
		cfg.GenerationRetries,
		metrics,
		logger,
	)
}

// ProvideEmbedder creates the embedding backend
func ProvideEmbedder(cfg *config.Config) ports.Embedder {
	return embedding.NewHashingEmbedder(cfg.EmbeddingDimensions)
}

// ProvideTokenCounter creates the token counter
func ProvideTokenCounter() *tokens.Counter {
	return tokens.NewCounter()
}

// ProvideAnswerValidator creates the answer sufficiency validator
func ProvideAnswerValidator(domainCfg *domainconfig.DomainConfig) *validators.AnswerValidator {
	return validators.NewAnswerValidatorWithConfig(domainCfg)
}

// ProvideQuestionService creates the question generation service
func ProvideQuestionService(
	backend ports.GenerationClient,
	validator *validators.AnswerValidator,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.QuestionService {
	return services.NewQuestionService(backend, validator, domainCfg, metrics, logger)
}

// ProvideMemoryService creates the conversation memory service
func ProvideMemoryService(
	index ports.ChunkIndex,
	embedder ports.Embedder,
	counter *tokens.Counter,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.MemoryService {
	return services.NewMemoryService(index, embedder, counter, domainCfg, metrics, logger)
}

// ProvideSnapshotService creates the snapshot service
func ProvideSnapshotService(domainCfg *domainconfig.DomainConfig) *versioning.SnapshotService {
	policy := versioning.DefaultSnapshotPolicy()
	policy.EveryAnswers = domainCfg.SnapshotEveryAnswers
	policy.MaxSnapshots = domainCfg.MaxSnapshots
	return versioning.NewSnapshotService(policy)
}

// ProvideEventPublisher creates the domain event publisher
func ProvideEventPublisher(logger *zap.Logger) ports.EventPublisher {
	return localbus.NewPublisher(logger)
}

// ProvideSessionLocks creates the per-session mutex table
func ProvideSessionLocks() *locking.SessionLocks {
	return locking.NewSessionLocks()
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() *InMemoryCache {
	return NewInMemoryCache()
}

// ProvideCache exposes the cache through its port
func ProvideCache(cache *InMemoryCache) ports.Cache {
	return cache
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// busLogger adapts the sugared zap logger to the bus logging interface
type busLogger struct {
	s *zap.SugaredLogger
}

func (l busLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l busLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	uow ports.UnitOfWork,
	conversations ports.ConversationRepository,
	snapshotStore ports.SnapshotStore,
	eventStore ports.EventStore,
	publisher ports.EventPublisher,
	cache ports.Cache,
	memory *services.MemoryService,
	questions *services.QuestionService,
	snapshots *versioning.SnapshotService,
	locks *locking.SessionLocks,
	metrics *observability.Collector,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(bus.LoggingMiddleware(busLogger{logger.Sugar()}))

	startHandler := commandhandlers.NewStartInterviewHandler(conversations, eventStore, publisher, questions, metrics, logger)
	if err := commandBus.Register(commands.StartInterviewCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			startCmd, ok := cmd.(commands.StartInterviewCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return startHandler.Handle(ctx, startCmd)
		},
	})); err != nil {
		return nil, err
	}

	submitHandler := commandhandlers.NewSubmitAnswerHandler(uow, conversations, snapshotStore, publisher, cache, memory, questions, snapshots, locks, metrics, domainCfg, logger)
	if err := commandBus.Register(commands.SubmitAnswerCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			submitCmd, ok := cmd.(commands.SubmitAnswerCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return submitHandler.Handle(ctx, submitCmd)
		},
	})); err != nil {
		return nil, err
	}

	skipHandler := commandhandlers.NewSkipQuestionHandler(uow, conversations, publisher, cache, questions, locks, metrics, logger)
	if err := commandBus.Register(commands.SkipQuestionCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			skipCmd, ok := cmd.(commands.SkipQuestionCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return skipHandler.Handle(ctx, skipCmd)
		},
	})); err != nil {
		return nil, err
	}

	editHandler := commandhandlers.NewEditAnswerHandler(uow, conversations, publisher, cache, memory, locks, metrics, domainCfg, logger)
	if err := commandBus.Register(commands.EditAnswerCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			editCmd, ok := cmd.(commands.EditAnswerCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return editHandler.Handle(ctx, editCmd)
		},
	})); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	conversations ports.ConversationRepository,
	memory *services.MemoryService,
	snapshotStore ports.SnapshotStore,
	catalog ports.ProviderCatalog,
	cache ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	caching := querybus.NewCachingMiddleware(cache, int(cfg.CacheTTL.Seconds()))

	historyHandler := queryhandlers.NewGetHistoryHandler(conversations, logger)
	if err := queryBus.Register(queries.GetHistoryQuery{}, caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			historyQuery, ok := query.(queries.GetHistoryQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return historyHandler.Handle(ctx, historyQuery)
		},
	})); err != nil {
		return nil, err
	}

	statusHandler := queryhandlers.NewGetStatusHandler(conversations, memory, snapshotStore, logger)
	if err := queryBus.Register(queries.GetStatusQuery{}, caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			statusQuery, ok := query.(queries.GetStatusQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return statusHandler.Handle(ctx, statusQuery)
		},
	})); err != nil {
		return nil, err
	}

	providersHandler := queryhandlers.NewGetProvidersHandler(catalog, logger)
	if err := queryBus.Register(queries.GetProvidersQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			providersQuery, ok := query.(queries.GetProvidersQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return providersHandler.Handle(ctx, providersQuery)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}
