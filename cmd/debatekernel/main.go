package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Plswearpants/AI-debate/internal/config"
	"github.com/Plswearpants/AI-debate/internal/cost"
	"github.com/Plswearpants/AI-debate/internal/kernel"
	"github.com/Plswearpants/AI-debate/internal/provider"
)

var cfgFile string

func main() {
	log := logrus.New()
	root := &cobra.Command{
		Use:   "debatekernel",
		Short: "Run and resume AI-moderated structured debates",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional TOML file overriding defaults")

	root.AddCommand(newRunCmd(log), newResumeCmd(log))

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newRunCmd(log *logrus.Logger) *cobra.Command {
	var rounds, crowdSize int
	var preset, debatesRoot string

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Start a new debate on the given topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			if rounds > 0 {
				cfg.DefaultRounds = rounds
			}
			if crowdSize > 0 {
				cfg.CrowdSize = crowdSize
			}
			if preset != "" {
				cfg.CostPreset = cost.Preset(preset)
			}
			if debatesRoot != "" {
				cfg.DebatesRoot = debatesRoot
			}

			meterProvider, shutdown, err := newMeterProvider()
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())

			client := provider.NewCircuitBreaker(&provider.StubClient{}, provider.DefaultCircuitBreakerConfig(), log)

			k, err := kernel.New(cmd.Context(), kernel.Config{
				Topic:                 args[0],
				TotalRounds:           cfg.DefaultRounds,
				CrowdSize:             cfg.CrowdSize,
				Preset:                cfg.CostPreset,
				DebatesRoot:           cfg.DebatesRoot,
				UnderdogBiasThreshold: cfg.UnderdogBiasThreshold,
			}, client, log, meterProvider.Meter("debatekernel"))
			if err != nil {
				return fmt.Errorf("creating debate: %w", err)
			}

			log.WithFields(logrus.Fields{"debate_id": k.DebateID(), "dir": k.Dir()}).Info("debate started")
			if err := k.Run(cmd.Context()); err != nil {
				return fmt.Errorf("running debate %s: %w", k.DebateID(), err)
			}
			fmt.Println(k.DebateID())
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "number of rebuttal rounds (default from config)")
	cmd.Flags().StringVar(&preset, "preset", "", "cost preset: conservative|balanced|premium")
	cmd.Flags().IntVar(&crowdSize, "crowd-size", 0, "number of crowd personas")
	cmd.Flags().StringVar(&debatesRoot, "debates-root", "", "root directory debates are stored under")
	return cmd
}

func newResumeCmd(log *logrus.Logger) *cobra.Command {
	var debatesRoot string

	cmd := &cobra.Command{
		Use:   "resume <debate-id>",
		Short: "Resume a checkpointed debate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			if debatesRoot != "" {
				cfg.DebatesRoot = debatesRoot
			}

			meterProvider, shutdown, err := newMeterProvider()
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())

			client := provider.NewCircuitBreaker(&provider.StubClient{}, provider.DefaultCircuitBreakerConfig(), log)

			k, err := kernel.Resume(cmd.Context(), args[0], kernel.Config{
				CrowdSize:             cfg.CrowdSize,
				Preset:                cfg.CostPreset,
				DebatesRoot:           cfg.DebatesRoot,
				UnderdogBiasThreshold: cfg.UnderdogBiasThreshold,
			}, client, log, meterProvider.Meter("debatekernel"))
			if err != nil {
				return fmt.Errorf("resuming debate %s: %w", args[0], err)
			}

			log.WithField("debate_id", k.DebateID()).Info("debate resumed")
			if err := k.Run(cmd.Context()); err != nil {
				return fmt.Errorf("running debate %s: %w", k.DebateID(), err)
			}
			fmt.Println(k.DebateID())
			return nil
		},
	}

	cmd.Flags().StringVar(&debatesRoot, "debates-root", "", "root directory debates are stored under")
	return cmd
}

func loadCLIConfig() (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.ApplyFile(cfg, cfgFile)
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(cfg), nil
}

// newMeterProvider builds a stdout-exporting OTel meter provider so cost
// and turn-duration instrumentation has somewhere to go without requiring
// an external collector. shutdown must be called before process exit to
// flush any buffered readings.
func newMeterProvider() (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("building metrics exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	return mp, mp.Shutdown, nil
}
