package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bricklink/inventory/internal/client"
	"bricklink/inventory/internal/config"
	"bricklink/inventory/internal/imgcache"
	"bricklink/inventory/internal/proxy"
	"bricklink/inventory/internal/queue"
	"bricklink/inventory/internal/repository"
	"bricklink/inventory/internal/service"
	"bricklink/inventory/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.BrickLinkClient
	Repository   repository.InventoryRepository
	Queue        queue.Queue
	StateManager state.StateManager
	ImageCache   *imgcache.Manager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier, err := proxy.NewProxySupplier(context.Background(), cfg.BrickLink.Proxies, cfg.BrickLink.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	brickLinkClient := client.NewBrickLinkClient(cfg.BrickLink, proxySupplier)
	container.Client = brickLinkClient

	imageCache, err := imgcache.New(brickLinkClient, cfg.Cache.Dir,
		imgcache.WithMemoryEntries(cfg.Cache.MemoryEntries),
		imgcache.WithMaxConcurrentFetches(cfg.Cache.MaxConcurrentFetches),
		imgcache.WithFetchTimeout(time.Duration(cfg.Cache.FetchTimeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image cache: %w", err)
	}
	container.ImageCache = imageCache

	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db
	container.Repository = repository.NewInventoryRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb

	log.Info("Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(rdb, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.Queue = redisQueue

	stateManager := state.NewRedisStateManager(rdb)
	container.StateManager = stateManager

	container.Service = service.NewService(
		container.Repository,
		brickLinkClient,
		redisQueue,
		stateManager,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleTime,
	)

	return container, nil
}

// Run enqueues the configured sets and processes them with workers
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.EnqueueSets(ctx, c.Config.Acquisition.Sets)
	})

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Acquisition.MaxWorkers)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	if err := c.redis.Close(); err != nil {
		return err
	}

	log.Info("Container shut down successfully")
	return nil
}
