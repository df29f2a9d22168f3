package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/taxreform/simulator/internal/api/dto"
	"github.com/taxreform/simulator/internal/config"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/logger"
	"github.com/taxreform/simulator/internal/repository"
	"github.com/taxreform/simulator/internal/service"
	"github.com/taxreform/simulator/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// options are the command line flags of a run
type options struct {
	ScenarioPath  string
	RulesPath     string
	SaveRulesPath string
	OutputPath    string
	Timeout       time.Duration
}

func init() {
	time.Local = time.UTC
}

func main() {
	opts := options{}
	flag.StringVar(&opts.ScenarioPath, "scenario", "", "Scenario JSON file, a single scenario or an array of scenarios (- reads stdin)")
	flag.StringVar(&opts.RulesPath, "rules", "", "Rule document loaded before simulating, overrides rules.path")
	flag.StringVar(&opts.SaveRulesPath, "save-rules", "", "Write the rules in effect to this file")
	flag.StringVar(&opts.OutputPath, "out", "", "Write results to this file instead of stdout")
	flag.DurationVar(&opts.Timeout, "timeout", time.Minute, "Abort the run after this long")
	flag.Parse()

	if opts.ScenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// TAXSIM_ overrides may live in a local .env file
	_ = godotenv.Load()

	validator.NewValidator()

	var runErr error
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Repositories
			repository.NewRulesRepository,

			// Services
			service.NewServiceParams,
			service.NewRulesService,
			service.NewSimulationService,
		),
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return l.GetFxLogger()
		}),
		fx.Invoke(func(
			cfg *config.Configuration,
			log *logger.Logger,
			rulesService service.RulesService,
			simulationService service.SimulationService,
		) {
			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancel()
			runErr = run(ctx, opts, cfg, log, rulesService, simulationService)
		}),
	)

	if err := app.Err(); err != nil {
		log.Fatalf("Failed to start simulator: %v", err)
	}

	if runErr != nil {
		resp := ierr.NewErrorResponse(runErr)
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(os.Stderr, string(out))
		os.Exit(ierr.ExitCodeFromErr(runErr))
	}
}

func run(
	ctx context.Context,
	opts options,
	cfg *config.Configuration,
	log *logger.Logger,
	rulesService service.RulesService,
	simulationService service.SimulationService,
) error {
	rulesPath := opts.RulesPath
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	if rulesPath != "" && !rulesService.Load(ctx, rulesPath) {
		return ierr.NewErrorf("rule document %s could not be loaded", rulesPath).
			WithHint("Fix the rule document or run without it to use the default rules").
			Mark(ierr.ErrConfig)
	}

	data, err := readInput(opts.ScenarioPath)
	if err != nil {
		return err
	}

	reqs, batch, err := decodeScenarios(data)
	if err != nil {
		return err
	}

	var result any
	if batch {
		result, err = simulationService.SimulateBatch(ctx, reqs)
	} else {
		result, err = simulationService.Simulate(ctx, reqs[0])
	}
	if err != nil {
		return err
	}

	if opts.SaveRulesPath != "" {
		if err := rulesService.Save(ctx, opts.SaveRulesPath); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode simulation results").
			Mark(ierr.ErrSystem)
	}

	log.Debugw("writing simulation results", "bytes", len(out), "batch", batch)
	return writeOutput(opts.OutputPath, append(out, '\n'))
}

// decodeScenarios accepts either one scenario object or an array of them.
// batch reports whether the input was an array.
func decodeScenarios(data []byte) (reqs []dto.SimulationRequest, batch bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, ierr.NewError("empty scenario input").
			WithHint("The scenario file is empty").
			Mark(ierr.ErrValidation)
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, true, malformedScenario(err)
		}
		return reqs, true, nil
	}

	req := dto.SimulationRequest{}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, false, malformedScenario(err)
	}
	return []dto.SimulationRequest{req}, false, nil
}

func malformedScenario(err error) error {
	return ierr.WithError(err).
		WithHint("The scenario file is not valid JSON").
		Mark(ierr.ErrValidation)
}

func readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return nil, ierr.WithError(err).
			WithHintf("Scenario file %s not found", path).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to read scenario file %s", path).
			Mark(ierr.ErrSystem)
	}
	return data, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to write results to %s", path).
			Mark(ierr.ErrSystem)
	}
	return nil
}
