package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

type decisionRepository struct {
	db config.PgxIface
}

func NewDecisionRepository(db config.PgxIface) repository.DecisionRepository {
	return &decisionRepository{db}
}

func (self *decisionRepository) WithQuerier(querier config.PgxIface) repository.DecisionRepository {
	return &decisionRepository{querier}
}

func (self *decisionRepository) GetById(id uuid.UUID) (decision domain.Decision, err error) {
	return decision, pgxscan.Get(
		context.Background(), self.db, &decision,
		`SELECT id, created_at, change_set, classification, plan, verdicts FROM decision WHERE id = $1`,
		id,
	)
}

func (self *decisionRepository) GetAll(page *repository.Page) ([]domain.Decision, error) {
	decisions := make([]domain.Decision, 0, page.Limit)
	return decisions, fetchPage(
		self.db, page, &decisions,
		`id, created_at, change_set, classification, plan, verdicts`, `decision`, `created_at DESC`,
	)
}

func (self *decisionRepository) Save(decision *domain.Decision) error {
	_, err := self.db.Exec(
		context.Background(),
		`INSERT INTO decision (id, created_at, change_set, classification, plan, verdicts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		decision.ID, decision.CreatedAt,
		decision.ChangeSet, decision.Classification, decision.Plan, decision.Verdicts,
	)
	return err
}
