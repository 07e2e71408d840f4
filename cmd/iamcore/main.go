// Command iamcore is the composition root: it wires the event store, every
// entity's command/query handlers, and the projection supervisor, then either
// runs them ("serve") or just brings the schema up to date ("migrate"). It
// deliberately exposes no transport (HTTP/gRPC) — that is a pluggable
// collaborator outside this core, per the system's own scope.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamcore/iamcore/internal/composition"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "iamcore",
		Short: "Multi-tenant IAM event-sourced core",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (overrides ./iamcore.yaml)")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*composition.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return composition.LoadConfig(v)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the command/query buses and the projection supervisor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			system, closeFn, err := composition.Wire(ctx, cfg)
			if err != nil {
				return fmt.Errorf("wire system: %w", err)
			}
			defer func() {
				system.Logger.Info("request metrics", "stats", system.Metrics.GetSummaryStats())
				system.Performance.LogStats()
				if err := closeFn(); err != nil {
					system.Logger.Error("error closing event store", "error", err)
				}
			}()

			system.Logger.Info("iamcore starting", "tenants", cfg.Tenants.InstanceIDs, "event_store", cfg.Events.Store)
			return system.Supervisor.Run(ctx, cfg.Tenants.InstanceIDs, system.Handlers)
		},
	}
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the projection and event-store schema, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			system, closeFn, err := composition.Wire(ctx, cfg)
			if err != nil {
				return fmt.Errorf("wire system: %w", err)
			}
			defer closeFn()

			system.Logger.Info("migration complete", "projections", len(system.Handlers))
			return nil
		},
	}
	return cmd
}
