package testutil

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/suite"
	"github.com/taxreform/simulator/internal/config"
	"github.com/taxreform/simulator/internal/logger"
	"github.com/taxreform/simulator/internal/types"
	"github.com/taxreform/simulator/internal/validator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Stores holds all in-memory store implementations
type Stores struct {
	RulesRepo *InMemoryRulesStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	logger *logger.Logger
	config *config.Configuration
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	// Initialize logger with test config
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelError

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		RulesRepo: NewInMemoryRulesStore(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.RulesRepo.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}
