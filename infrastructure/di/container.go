package di

import (
	"context"

	"ideaforge/application/commands/bus"
	"ideaforge/application/ports"
	querybus "ideaforge/application/queries/bus"
	"ideaforge/application/services"
	domainconfig "ideaforge/domain/config"
	"ideaforge/domain/versioning"
	"ideaforge/infrastructure/config"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Metrics      *observability.Collector
	Storage      *Storage
	Registry     *config.ProviderRegistry
	Catalog      ports.ProviderCatalog
	Generation   ports.GenerationClient
	Embedder     ports.Embedder
	Publisher    ports.EventPublisher
	Cache        *InMemoryCache
	Locks        *locking.SessionLocks
	Memory       *services.MemoryService
	Questions    *services.QuestionService
	Snapshots    *versioning.SnapshotService
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
}

// Ping verifies the storage backend is reachable
func (c *Container) Ping(ctx context.Context) error {
	return c.Storage.Ping(ctx)
}

// Close releases background resources owned by the container. The
// registry watcher and cache janitor stop before the storage they feed.
func (c *Container) Close() error {
	watchErr := c.Registry.Close()
	c.Cache.Stop()
	if err := c.Storage.Close(); err != nil {
		return err
	}
	return watchErr
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideMetrics,
	ProvideStorage,
	ProvideConversationRepository,
	ProvideChunkIndex,
	ProvideSnapshotStore,
	ProvideEventStore,
	ProvideUnitOfWork,
	ProvideProviderRegistry,
	ProvideProviderCatalog,
	ProvideGenerationClient,
	ProvideEmbedder,
	ProvideTokenCounter,
	ProvideAnswerValidator,
	ProvideQuestionService,
	ProvideMemoryService,
	ProvideSnapshotService,
	ProvideEventPublisher,
	ProvideSessionLocks,
	ProvideInMemoryCache,
	ProvideCache,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)
