package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"ChainPull/internal/analyzer"
	"ChainPull/internal/domain/repository"
	"ChainPull/internal/handler/api"
	internalrepo "ChainPull/internal/repository"
	icache "ChainPull/internal/service/cache"
	"ChainPull/internal/usecase"
	pkgcache "ChainPull/pkg/cache"
	"ChainPull/pkg/config"
	pkgkafka "ChainPull/pkg/kafka"
	applogger "ChainPull/pkg/logger"
	"ChainPull/pkg/queue"
	"ChainPull/pkg/sched"
	"ChainPull/pkg/server"
)

// InitializeApp builds the full dependency graph and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	l, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	m := ProvideMetrics()

	chClient, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	storage := ProvideChainStorage(chClient, cfg)

	// Ingest side: websocket -> pipeline -> kafka or clickhouse
	var pub repository.Publisher
	var consumer *pkgkafka.Consumer
	var kh pkgkafka.MessageHandler
	if cfg.Backend.Type == "kafka" {
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			return nil, err
		}
		pub = ProvideChainPublisher(producer, cfg)

		consumer, err = ProvideKafkaConsumer(cfg)
		if err != nil {
			return nil, err
		}
		kh = ProvideKafkaChainHandler(storage, m, cfg)
	}
	processor := ProvideChainProcessor(pub, storage, m, cfg)
	collector := ProvideChainCollector(ProvideChainStream(cfg), processor, m)

	// Analyzer side: periodic cycles over the latest snapshot
	loc, err := analyzer.SessionLocation()
	if err != nil {
		return nil, fmt.Errorf("session location: %w", err)
	}
	snaps := internalrepo.NewCHSnapshotStore(chClient, tableRef(cfg, chainTable), tableRef(cfg, spotTable), cfg.Analyzers.SnapshotStaleness)
	snaps.SetLogger(l)
	spreadStore := internalrepo.NewCHSpreadStore(chClient, tableRef(cfg, spreadMetricsTable), loc)

	spread := analyzer.NewSpreadAnalyzer(snaps, spreadStore, m, loc, l)
	condor, err := analyzer.NewCondorAnalyzer(snaps, analyzer.DefaultCondorParams(), m, loc, l)
	if err != nil {
		return nil, err
	}
	vertical, err := analyzer.NewVerticalAnalyzer(snaps, analyzer.VerticalTiers(), m, loc, l)
	if err != nil {
		return nil, err
	}

	// Redis: response cache plus the position-event journal queue
	var dataCache icache.BytesCache
	var journal analyzer.Journal
	var journalPub, journalWorker *queue.RedisQueue
	if cfg.Redis.Enabled {
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(redisHost(cfg.Redis.Addr)),
			pkgcache.WithRedisPort(redisPort(cfg.Redis.Addr)),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			l.Warn("redis unavailable, falling back to in-process cache", applogger.Error(err))
			dataCache = icache.NewTTLCache()
		} else {
			dataCache = icache.NewServiceCache(pkgcache.NewLayeredCache(redisCache))

			eventStore := internalrepo.NewCHPositionEventStore(chClient, tableRef(cfg, positionEventTable))
			qcfg := &queue.QueueConfig{
				Workers:    cfg.Redis.Queue.Workers,
				RetryLimit: cfg.Redis.Queue.RetryLimit,
				RetryDelay: cfg.Redis.Queue.RetryDelay,
			}
			client := redisCache.Client()
			journalPub = queue.NewRedisPublisher(l, client, queue.WithKeyPrefix("chainpull:positions"))
			journalWorker = queue.NewRedisConsumer(l, qcfg, client,
				[]queue.Job{usecase.NewPositionEventJob(eventStore, l)},
				queue.WithKeyPrefix("chainpull:positions"))
			journal = usecase.NewQueueJournal(journalPub)

			// Ship aggregated error logs onto their own queue for external drains.
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          "error_log",
				Publisher:      queue.NewRedisPublisher(l, client, queue.WithKeyPrefix("chainpull:logs")),
			})
		}
	} else {
		dataCache = icache.NewTTLCache()
	}

	ledger := analyzer.NewLedger(journal, l)

	// HTTP surface
	ah := api.NewAnalyzersHandler(l, spread, condor, vertical, cfg.Analyzers.CacheTTL)
	ah.SetCache(dataCache)
	ph := api.NewPositionsHandler(l, ledger)
	ch := api.NewChainHandler(l, storage, snaps)
	router := api.NewRouter(ah, ph, ch, storage, collector.IsConnected)

	app := server.New(cfg, l, collector, consumer, kh, chClient, router)
	app.ChainProc = processor
	app.AddQueue(journalWorker)

	app.AddRunner(sched.NewRunner("spread", cfg.Analyzers.SpreadInterval, func(ctx context.Context) {
		spread.RunCycle(ctx)
	}))
	app.AddRunner(sched.NewRunner("condor", cfg.Analyzers.CondorInterval, func(ctx context.Context) {
		condor.RunCycle(ctx)
	}))
	app.AddRunner(sched.NewRunner("vertical", cfg.Analyzers.VerticalInterval, func(ctx context.Context) {
		vertical.RunCycle(ctx)
	}))

	return app, nil
}

func redisHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "localhost"
	}
	return host
}

func redisPort(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 6379
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 6379
	}
	return n
}
