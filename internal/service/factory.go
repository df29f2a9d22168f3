package service

import (
	"github.com/taxreform/simulator/internal/config"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	RulesRepo rules.Repository
}

// NewServiceParams creates a new ServiceParams instance
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	rulesRepo rules.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:    logger,
		Config:    config,
		RulesRepo: rulesRepo,
	}
}
