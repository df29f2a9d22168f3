package repository

import (
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/logger"
	fileRepo "github.com/taxreform/simulator/internal/repository/file"
)

func NewRulesRepository(logger *logger.Logger) rules.Repository {
	return fileRepo.NewRulesRepository(logger)
}
