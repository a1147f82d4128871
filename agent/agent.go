package agent

import (
	"fmt"
	"sync"

	"github.com/mohitkumar/autopilot/action/bridge"
	"github.com/mohitkumar/autopilot/analytics"
	"github.com/mohitkumar/autopilot/config"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/persistence/memory"
	"github.com/mohitkumar/autopilot/persistence/redis"
	"github.com/mohitkumar/autopilot/rest"
	"github.com/mohitkumar/autopilot/service"
	"github.com/mohitkumar/autopilot/util"
	"go.uber.org/zap"
)

type closer interface {
	Close() error
}

type Agent struct {
	Config          config.Config
	patternStore    persistence.PatternStore
	workflowStore   persistence.WorkflowStore
	collector       analytics.PatternDataCollector
	patternService  *service.PatternService
	workflowService *service.WorkflowService
	sweeper         *util.TickWorker
	httpServer      *rest.Server
	closers         []closer
	shutdown        bool
	shutdownLock    sync.Mutex
	wg              sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config: config,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupAnalytics,
		a.setupPatternService,
		a.setupWorkflowService,
		a.setupSweeper,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		conf := redis.Config{
			Addrs:          a.Config.RedisConfig.Addrs,
			Namespace:      a.Config.RedisConfig.Namespace,
			PartitionCount: a.Config.RedisConfig.PartitionCount,
		}
		patternDao := redis.NewRedisPatternDao(conf)
		workflowDao := redis.NewRedisWorkflowDao(conf)
		a.patternStore, a.workflowStore = patternDao, workflowDao
		a.closers = append(a.closers, patternDao, workflowDao)
	case config.STORAGE_TYPE_INMEM:
		a.patternStore = memory.NewPatternStore()
		a.workflowStore = memory.NewWorkflowStore()
	default:
		return fmt.Errorf("unknown storage type %q", a.Config.StorageType)
	}
	logger.Info("storage initialized", zap.String("type", string(a.Config.StorageType)))
	return nil
}

func (a *Agent) setupAnalytics() error {
	collector, err := analytics.NewDataCollector(a.Config.AnalyticsConfig)
	if err != nil {
		return err
	}
	a.collector = collector
	if c, ok := collector.(closer); ok {
		a.closers = append(a.closers, c)
	}
	return nil
}

func (a *Agent) setupPatternService() error {
	actuator := bridge.New(bridge.Config{
		BaseUrl:       a.Config.ActuatorConfig.BaseUrl,
		Timeout:       a.Config.ActuatorConfig.Timeout,
		MaxRetries:    a.Config.ActuatorConfig.MaxRetries,
		RetryInterval: a.Config.ActuatorConfig.RetryInterval,
	})
	a.patternService = service.NewPatternService(a.patternStore, actuator, a.collector, util.SystemClock)
	return nil
}

func (a *Agent) setupWorkflowService() error {
	a.workflowService = service.NewWorkflowService(a.workflowStore, a.patternService, a.collector, util.SystemClock, a.Config.WorkflowExecCapacity, &a.wg)
	a.workflowService.Start()
	return nil
}

func (a *Agent) setupSweeper() error {
	if a.Config.SweepInterval <= 0 {
		return nil
	}
	prune := a.Config.PruneUnreliable
	a.sweeper = util.NewTickWorker("pattern-sweeper", a.Config.SweepInterval, func() {
		report, err := a.patternService.Sweep(prune)
		if err != nil {
			logger.Error("pattern sweep failed", zap.Error(err))
			return
		}
		logger.Info("pattern sweep finished", zap.Int("checked", report.Checked), zap.Int("flagged", len(report.Flagged)), zap.Int("pruned", len(report.Pruned)))
	}, &a.wg)
	a.sweeper.Start()
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.patternService, a.workflowService)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			if a.sweeper != nil {
				a.sweeper.Stop()
			}
			a.workflowService.Stop()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("error closing resource", zap.Error(err))
		}
	}
	return nil
}
