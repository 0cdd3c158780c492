package umpire

import (
	"context"
	"time"

	"cirello.io/oversight"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/application/component"
	"github.com/umpire-ci/umpire/src/application/component/web"
	"github.com/umpire-ci/umpire/src/application/service"
	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/infrastructure/persistence"
)

type ServeCmd struct {
	Config string `arg:"--config,env:UMPIRE_CONFIG" help:"engine configuration file"`

	WebListen    string `arg:"--web-listen,env:UMPIRE_WEB_LISTEN" default:":8080"`
	WebTokenFile string `arg:"--web-token-file" help:"file that contains the API bearer token"`

	PruneKeep     int           `arg:"--prune-keep" default:"100" help:"baseline samples to keep per metric"`
	PruneInterval time.Duration `arg:"--prune-interval" default:"1h"`

	LogDb bool `arg:"--log-db"`
}

func (cmd ServeCmd) Run(logger *zerolog.Logger) error {
	instance, err := NewInstance(cmd, logger)
	if err != nil {
		return err
	}
	defer instance.Close()

	return instance.Run(context.Background())
}

func NewInstance(cmd ServeCmd, logger *zerolog.Logger) (Instance, error) {
	instance := Instance{logger: logger}

	configPath := cmd.Config
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	decisionConfig, err := config.LoadDecisionConfig(configPath)
	if err != nil {
		return instance, err
	}

	db, err := config.DBConnection(logger, cmd.LogDb)
	if err != nil {
		return instance, err
	}
	instance.db = db

	monitoring := config.NewMonitoring()

	classificationService := service.NewClassificationService(logger)
	plannerService := service.NewPlannerService(logger)
	regressionService := service.NewRegressionService(logger)
	baselineService := service.NewBaselineService(persistence.NewBaselineRepository(db), logger)
	decisionService := service.NewDecisionService(classificationService, plannerService, regressionService, baselineService, logger)
	decisionLogService := service.NewDecisionLogService(db, logger)

	webConfig, err := config.NewWebConfig(cmd.WebListen, cmd.WebTokenFile)
	if err != nil {
		return instance, err
	}

	instance.Web = &web.Web{
		Config:             webConfig,
		Logger:             logger.With().Str("component", "Web").Logger(),
		DecisionService:    decisionService,
		DecisionLogService: decisionLogService,
		BaselineService:    baselineService,
		Monitoring:         monitoring,
		DecisionConfig:     decisionConfig,
		Db:                 db,
	}

	instance.Pruner = &component.BaselinePruner{
		Logger:          logger.With().Str("component", "BaselinePruner").Logger(),
		BaselineService: baselineService,
		Metrics:         decisionConfig.Regression.Metrics,
		Keep:            cmd.PruneKeep,
		Interval:        cmd.PruneInterval,
	}

	return instance, nil
}

type Instance struct {
	Web    *web.Web
	Pruner *component.BaselinePruner

	logger *zerolog.Logger
	db     config.PgxIface
}

func (self Instance) Close() {
	if pool, ok := self.db.(interface{ Close() }); ok {
		pool.Close()
	}
}

func (self Instance) Run(ctx context.Context) error {
	self.logger.Info().Msg("Starting components")

	supervisor := oversight.New(
		oversight.WithLogger(&config.SupervisorLogger{Logger: self.logger}),
		oversight.WithSpecification(
			10,                    // number of restarts
			1*time.Minute,         // within this time period
			oversight.OneForOne(), // restart every task on its own
		),
	)

	if err := supervisor.Add(self.Web.Start); err != nil {
		return err
	}
	if err := supervisor.Add(self.Pruner.Start); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := supervisor.Start(ctx); err != nil {
		return errors.WithMessage(err, "While starting supervisor")
	}

	<-ctx.Done()
	return nil
}
