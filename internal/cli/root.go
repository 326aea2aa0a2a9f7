// Package cli implements the estate command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/database"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/platform"
)

// app carries the state shared by every command of one invocation
type app struct {
	envFile  string
	format   string
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
	out    io.Writer
	errOut io.Writer
}

// NewRootCmd builds the command tree writing results to out and logs to errOut
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "estate",
		Short:         "Riyadh real-estate analytics",
		Long:          `estate generates, cleans and analyzes Riyadh property listings, trains price models and serves the results over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional env file loaded before the environment")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "yaml", "result format: yaml or json")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		a.newGenerateCmd(),
		a.newAnalyzeCmd(),
		a.newTrainCmd(),
		a.newPredictCmd(),
		a.newDatasetCmd(),
		a.newServeCmd(),
	)
	return root
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	if a.format != "yaml" && a.format != "json" {
		return fmt.Errorf("unsupported output format %q", a.format)
	}

	cfg, err := config.LoadConfig(a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.errOut)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) newPlatform() (*platform.Platform, error) {
	return platform.New(a.cfg, a.logger)
}

func (a *app) openDatabase() (*database.Database, error) {
	db, err := database.NewDatabase(a.cfg.Database.Path, a.cfg.Database.BatchSize, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// sourceFlags selects where a command reads its listings from
type sourceFlags struct {
	input   string
	dataset string
	samples int
	seed    int64
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.input, "input", "i", "", "CSV file with listings")
	cmd.Flags().StringVar(&s.dataset, "dataset", "", "stored dataset name")
	cmd.Flags().IntVarP(&s.samples, "samples", "n", -1, "synthetic listings to generate when no input is given (default GENERATOR_SAMPLES)")
	cmd.Flags().Int64Var(&s.seed, "seed", -1, "generator seed (default GENERATOR_SEED)")
	cmd.MarkFlagsMutuallyExclusive("input", "dataset")
}

// load fills p from a CSV file, a stored dataset or the generator
func (a *app) load(p *platform.Platform, s sourceFlags) error {
	switch {
	case s.input != "":
		return p.LoadCSV(s.input)
	case s.dataset != "":
		db, err := a.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		table, err := db.LoadTable(s.dataset)
		if err != nil {
			return err
		}
		p.Load(table)
		return nil
	}

	samples, seed := a.generatorDefaults(s.samples, s.seed)
	_, err := p.Generate(samples, seed)
	return err
}

func (a *app) generatorDefaults(samples int, seed int64) (int, int64) {
	if samples < 0 {
		samples = a.cfg.Generator.Samples
	}
	if seed < 0 {
		seed = a.cfg.Generator.Seed
	}
	return samples, seed
}
