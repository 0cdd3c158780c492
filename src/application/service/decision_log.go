package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
	"github.com/umpire-ci/umpire/src/infrastructure/persistence"
)

// DecisionLogService records computed decisions for later inspection.
type DecisionLogService interface {
	WithQuerier(config.PgxIface) DecisionLogService

	GetById(uuid.UUID) (domain.Decision, error)
	GetAll(*repository.Page) ([]domain.Decision, error)
	Save(*domain.Decision) error
}

type decisionLogService struct {
	logger             zerolog.Logger
	decisionRepository repository.DecisionRepository
}

func NewDecisionLogService(db config.PgxIface, logger *zerolog.Logger) DecisionLogService {
	return &decisionLogService{
		logger:             logger.With().Str("component", "DecisionLogService").Logger(),
		decisionRepository: persistence.NewDecisionRepository(db),
	}
}

func (self *decisionLogService) WithQuerier(querier config.PgxIface) DecisionLogService {
	return &decisionLogService{
		logger:             self.logger,
		decisionRepository: self.decisionRepository.WithQuerier(querier),
	}
}

func (self *decisionLogService) GetById(id uuid.UUID) (decision domain.Decision, err error) {
	self.logger.Debug().Str("id", id.String()).Msg("Getting Decision by ID")
	decision, err = self.decisionRepository.GetById(id)
	err = errors.WithMessagef(err, "Could not select existing Decision with ID %q", id)
	return
}

func (self *decisionLogService) GetAll(page *repository.Page) (decisions []domain.Decision, err error) {
	self.logger.Debug().Int("offset", page.Offset).Int("limit", page.Limit).Msg("Getting Decisions")
	decisions, err = self.decisionRepository.GetAll(page)
	err = errors.WithMessage(err, "Could not select Decisions")
	return
}

func (self *decisionLogService) Save(decision *domain.Decision) error {
	self.logger.Debug().Str("id", decision.ID.String()).Msg("Saving Decision")
	if err := self.decisionRepository.Save(decision); err != nil {
		return errors.WithMessage(err, "Could not insert Decision")
	}
	return nil
}
