package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"github.com/taxreform/simulator/internal/api/dto"
	"github.com/taxreform/simulator/internal/domain/company"
	"github.com/taxreform/simulator/internal/domain/dualvat"
	"github.com/taxreform/simulator/internal/domain/legacytax"
	"github.com/taxreform/simulator/internal/domain/rules"
	"github.com/taxreform/simulator/internal/domain/trace"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/types"
)

type SimulationService interface {
	// Scenario operations
	Simulate(ctx context.Context, req dto.SimulationRequest) (*dto.SimulationResponse, error)
	SimulateBatch(ctx context.Context, reqs []dto.SimulationRequest) (*dto.BatchSimulationResponse, error)

	// Engine operations against the current rules
	ComputeDue(ctx context.Context, profile *company.Profile, year int) (*dualvat.YearResult, *trace.Trace, error)
	CompareAcrossYears(ctx context.Context, profile *company.Profile, years []int) (map[int]*dualvat.YearResult, *trace.Trace, error)
	EquivalentRates(ctx context.Context, profile *company.Profile, currentBurdenPct decimal.Decimal, year int) dualvat.EquivalentRates
}

type simulationService struct {
	ServiceParams
	rules      RulesService
	calculator *dualvat.Calculator
}

// NewSimulationService creates a simulation driver reading rules from rulesService
func NewSimulationService(params ServiceParams, rulesService RulesService) SimulationService {
	return &simulationService{
		ServiceParams: params,
		rules:         rulesService,
		calculator:    dualvat.NewCalculator(legacytax.NewCalculator(params.Logger), params.Logger),
	}
}

// Simulate runs one scenario against a snapshot of the current rules
func (s *simulationService) Simulate(ctx context.Context, req dto.SimulationRequest) (*dto.SimulationResponse, error) {
	return s.simulate(ctx, s.rules.Snapshot(), req)
}

// SimulateBatch runs every scenario concurrently. All scenarios share one
// snapshot, so a rules change during the batch affects none of them. A
// failing scenario is reported in its item and does not stop the others.
func (s *simulationService) SimulateBatch(ctx context.Context, reqs []dto.SimulationRequest) (*dto.BatchSimulationResponse, error) {
	if len(reqs) == 0 {
		return nil, ierr.NewError("no scenarios to simulate").
			WithHint("At least one scenario is required").
			Mark(ierr.ErrValidation)
	}

	snapshot := s.rules.Snapshot()
	items := make([]*dto.BatchSimulationItem, len(reqs))

	p := pool.New().WithMaxGoroutines(max(1, s.Config.Simulation.BatchConcurrency))
	for i := range reqs {
		p.Go(func() {
			item := &dto.BatchSimulationItem{Index: i}
			resp, err := s.simulate(ctx, snapshot, reqs[i])
			if err != nil {
				errResp := ierr.NewErrorResponse(err)
				item.Error = &errResp
			} else {
				item.Response = resp
			}
			items[i] = item
		})
	}
	p.Wait()

	failed := lo.CountBy(items, func(item *dto.BatchSimulationItem) bool {
		return item.Error != nil
	})

	s.Logger.Infow("batch simulation completed",
		"scenarios", len(reqs),
		"failed", failed,
	)

	return &dto.BatchSimulationResponse{
		Items:  items,
		Failed: failed,
	}, nil
}

func (s *simulationService) ComputeDue(ctx context.Context, profile *company.Profile, year int) (*dualvat.YearResult, *trace.Trace, error) {
	return s.calculator.ComputeDue(s.rules.Snapshot(), profile, year)
}

func (s *simulationService) CompareAcrossYears(ctx context.Context, profile *company.Profile, years []int) (map[int]*dualvat.YearResult, *trace.Trace, error) {
	return s.calculator.CompareAcrossYears(s.rules.Snapshot(), profile, years)
}

func (s *simulationService) EquivalentRates(ctx context.Context, profile *company.Profile, currentBurdenPct decimal.Decimal, year int) dualvat.EquivalentRates {
	return s.calculator.EquivalentRates(s.rules.Snapshot(), profile, currentBurdenPct, year)
}

func (s *simulationService) simulate(ctx context.Context, snapshot *rules.Configuration, req dto.SimulationRequest) (*dto.SimulationResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Simulation was cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	if err := req.Validate(); err != nil {
		s.Logger.Warnw("simulation request validation failed",
			"error", err,
			"name", req.Name,
		)
		return nil, err
	}

	cfg, err := s.scenarioRules(snapshot, req.Incentives)
	if err != nil {
		s.Logger.Warnw("scenario incentives rejected",
			"error", err,
			"name", req.Name,
		)
		return nil, err
	}

	years := req.ResolveYears(s.Config.Simulation.Years())
	if len(years) == 0 {
		years = cfg.TransitionYears()
	}

	profile := req.Company.ToProfile()
	results, tr, err := s.calculator.CompareAcrossYears(cfg, profile, years)
	if err != nil {
		s.Logger.Warnw("simulation failed",
			"error", err,
			"name", req.Name,
		)
		return nil, err
	}

	resp := &dto.SimulationResponse{
		ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIMULATION),
		Name:    req.Name,
		Years:   years,
		Results: results,
		Trace:   tr,
	}

	for _, year := range years {
		if results[year].Legacy.Failed {
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%d: legacy taxes could not be computed and were counted as zero", year))
		}
	}

	if req.CurrentBurdenPct != nil {
		resp.EquivalentRates = make(map[int]*dualvat.EquivalentRates, len(years))
		for _, year := range years {
			rates := s.calculator.EquivalentRates(cfg, profile, *req.CurrentBurdenPct, year)
			if rates.Err != nil {
				resp.Warnings = append(resp.Warnings,
					fmt.Sprintf("%d: equivalent rates could not be estimated", year))
			}
			resp.EquivalentRates[year] = &rates
		}
	}

	s.Logger.Infow("simulation completed",
		"simulation_id", resp.ID,
		"name", req.Name,
		"sector", profile.Sector,
		"years", len(years),
		"warnings", len(resp.Warnings),
	)

	return resp, nil
}

// scenarioRules returns snapshot with the scenario incentive lists applied.
// snapshot itself is never modified.
func (s *simulationService) scenarioRules(snapshot *rules.Configuration, incentives *dto.IncentivesRequest) (*rules.Configuration, error) {
	if incentives == nil {
		return snapshot, nil
	}

	cfg := snapshot.Clone()
	for category, list := range incentives.ByCategory() {
		if err := cfg.SetIncentives(category, list); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
