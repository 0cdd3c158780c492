package repository

import (
	"github.com/google/uuid"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
)

type DecisionRepository interface {
	WithQuerier(config.PgxIface) DecisionRepository

	GetById(uuid.UUID) (domain.Decision, error)
	GetAll(*Page) ([]domain.Decision, error)
	Save(*domain.Decision) error
}
