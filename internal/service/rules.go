package service

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/taxreform/simulator/internal/domain/rules"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

// RulesService owns the rule configuration of a simulation session. Readers
// get immutable snapshots; every change publishes a new validated snapshot.
type RulesService interface {
	// Snapshot returns the current configuration. The value must not be modified.
	Snapshot() *rules.Configuration

	EffectiveRates(sector types.Sector, year int) rules.EffectiveRates
	TransitionFraction(year int) decimal.Decimal
	CrossCreditFraction(year int) (decimal.Decimal, bool)
	SectorRule(sector types.Sector) rules.SectorRule
	LegacyPhaseOut(year int) rules.LegacyShares

	// Load replaces the persisted sections with the document at path. It
	// reports false and keeps the current configuration when the document is
	// missing, malformed or invalid.
	Load(ctx context.Context, path string) bool
	// Save writes the persisted sections to path
	Save(ctx context.Context, path string) error
	RestoreDefaults(ctx context.Context)

	SetBaseRates(ctx context.Context, rates rules.BaseRates) error
	SetTransitionFraction(ctx context.Context, year int, fraction decimal.Decimal) error
	SetSectorRule(ctx context.Context, sector types.Sector, rule rules.SectorRule) error
	SetICMSRates(ctx context.Context, input, output decimal.Decimal) error

	SetIncentives(ctx context.Context, category types.IncentiveCategory, list []rules.Incentive) error
	AddIncentive(ctx context.Context, category types.IncentiveCategory, incentive rules.Incentive) error
	UpdateIncentive(ctx context.Context, category types.IncentiveCategory, index int, incentive rules.Incentive) error
	RemoveIncentive(ctx context.Context, category types.IncentiveCategory, index int) error
}

type rulesService struct {
	ServiceParams

	// mu serializes writers; readers only load current
	mu      sync.Mutex
	current atomic.Pointer[rules.Configuration]
}

// NewRulesService creates a session holding the default configuration
func NewRulesService(params ServiceParams) RulesService {
	s := &rulesService{
		ServiceParams: params,
	}
	s.current.Store(rules.NewDefaultConfiguration())
	return s
}

func (s *rulesService) Snapshot() *rules.Configuration {
	return s.current.Load()
}

func (s *rulesService) EffectiveRates(sector types.Sector, year int) rules.EffectiveRates {
	return s.Snapshot().EffectiveRates(sector, year)
}

func (s *rulesService) TransitionFraction(year int) decimal.Decimal {
	return s.Snapshot().TransitionFraction(year)
}

func (s *rulesService) CrossCreditFraction(year int) (decimal.Decimal, bool) {
	return s.Snapshot().CrossCreditFraction(year)
}

func (s *rulesService) SectorRule(sector types.Sector) rules.SectorRule {
	return s.Snapshot().SectorRule(sector)
}

func (s *rulesService) LegacyPhaseOut(year int) rules.LegacyShares {
	return s.Snapshot().LegacyPhaseOutFor(year)
}

func (s *rulesService) Load(ctx context.Context, path string) bool {
	doc, err := s.RulesRepo.Load(ctx, path)
	if err != nil {
		s.Logger.Warnw("failed to load rule document, keeping current configuration",
			"error", err,
			"path", path,
		)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Load().WithDocument(doc)
	if err != nil {
		s.Logger.Warnw("rejected invalid rule document, keeping current configuration",
			"error", err,
			"path", path,
		)
		return false
	}

	s.current.Store(next)
	s.Logger.Infow("loaded rule document",
		"path", path,
		"transition_years", len(next.Transition),
		"sectors", len(next.Sectors),
	)
	return true
}

func (s *rulesService) Save(ctx context.Context, path string) error {
	if path == "" {
		return ierr.NewError("path is required").
			WithHint("A destination path is required to save the rules").
			Mark(ierr.ErrValidation)
	}

	if err := s.RulesRepo.Save(ctx, path, s.Snapshot().Document()); err != nil {
		s.Logger.Errorw("failed to save rule document",
			"error", err,
			"path", path,
		)
		return err
	}
	return nil
}

func (s *rulesService) RestoreDefaults(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Store(rules.NewDefaultConfiguration())
	s.Logger.Infow("restored default rules")
}

func (s *rulesService) SetBaseRates(ctx context.Context, rates rules.BaseRates) error {
	return s.update("set_base_rates", func(cfg *rules.Configuration) error {
		cfg.BaseRates = rates
		return nil
	})
}

func (s *rulesService) SetTransitionFraction(ctx context.Context, year int, fraction decimal.Decimal) error {
	return s.update("set_transition_fraction", func(cfg *rules.Configuration) error {
		if cfg.Transition == nil {
			cfg.Transition = make(map[int]decimal.Decimal)
		}
		cfg.Transition[year] = fraction
		return nil
	})
}

func (s *rulesService) SetSectorRule(ctx context.Context, sector types.Sector, rule rules.SectorRule) error {
	if sector == "" {
		return ierr.NewError("sector is required").
			WithHint("A sector name is required to set a sector rule").
			Mark(ierr.ErrValidation)
	}

	return s.update("set_sector_rule", func(cfg *rules.Configuration) error {
		cfg.Sectors[sector] = rule
		return nil
	})
}

func (s *rulesService) SetICMSRates(ctx context.Context, input, output decimal.Decimal) error {
	return s.update("set_icms_rates", func(cfg *rules.Configuration) error {
		cfg.ICMS.InputRate = input
		cfg.ICMS.OutputRate = output
		return nil
	})
}

func (s *rulesService) SetIncentives(ctx context.Context, category types.IncentiveCategory, list []rules.Incentive) error {
	return s.update("set_incentives", func(cfg *rules.Configuration) error {
		return cfg.SetIncentives(category, list)
	})
}

func (s *rulesService) AddIncentive(ctx context.Context, category types.IncentiveCategory, incentive rules.Incentive) error {
	return s.update("add_incentive", func(cfg *rules.Configuration) error {
		if err := category.Validate(); err != nil {
			return err
		}
		list := append(slices.Clone(cfg.ICMS.Incentives(category)), incentive)
		return cfg.SetIncentives(category, list)
	})
}

func (s *rulesService) UpdateIncentive(ctx context.Context, category types.IncentiveCategory, index int, incentive rules.Incentive) error {
	return s.update("update_incentive", func(cfg *rules.Configuration) error {
		if err := category.Validate(); err != nil {
			return err
		}
		list := slices.Clone(cfg.ICMS.Incentives(category))
		if err := checkIncentiveIndex(category, index, len(list)); err != nil {
			return err
		}
		list[index] = incentive
		return cfg.SetIncentives(category, list)
	})
}

func (s *rulesService) RemoveIncentive(ctx context.Context, category types.IncentiveCategory, index int) error {
	return s.update("remove_incentive", func(cfg *rules.Configuration) error {
		if err := category.Validate(); err != nil {
			return err
		}
		list := slices.Clone(cfg.ICMS.Incentives(category))
		if err := checkIncentiveIndex(category, index, len(list)); err != nil {
			return err
		}
		return cfg.SetIncentives(category, slices.Delete(list, index, index+1))
	})
}

// update applies fn to a copy of the current configuration and publishes the
// copy once it validates. On error the current configuration is kept.
func (s *rulesService) update(op string, fn func(cfg *rules.Configuration) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Clone()
	if err := fn(next); err != nil {
		s.Logger.Warnw("rules update rejected", "operation", op, "error", err)
		return err
	}
	if err := next.Validate(); err != nil {
		s.Logger.Warnw("rules update rejected", "operation", op, "error", err)
		return err
	}

	s.current.Store(next)
	s.Logger.Debugw("rules updated", "operation", op)
	return nil
}

func checkIncentiveIndex(category types.IncentiveCategory, index, size int) error {
	if index < 0 || index >= size {
		return ierr.NewErrorf("incentive index %d out of range", index).
			WithHintf("The %s incentive list has %d entries", category, size).
			WithReportableDetails(map[string]any{
				"category": category,
				"index":    index,
				"size":     size,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}
