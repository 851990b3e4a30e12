package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamzrod/taskwatch/internal/health"
	"github.com/tamzrod/taskwatch/internal/writer"
	wmodbus "github.com/tamzrod/taskwatch/internal/writer/modbus"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the task monitor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Telegram.Session == "" {
				s, err := promptSession(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				cfg.Telegram.Session = s
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}

			// --------------------
			// Health surface (read-only)
			// --------------------
			if cfg.Health.Addr != "" {
				go func() {
					if err := health.Serve(ctx, cfg.Health.Addr, health.Handler(a.state, nil), logger); err != nil {
						logger.Error("health_server_failed", "addr", cfg.Health.Addr, "error", err.Error())
					}
				}()
			}

			// --------------------
			// Modbus status export (optional)
			// --------------------
			if se := cfg.StatusExport; se.Enabled() {
				// The client dials on the first write; a down endpoint only
				// degrades the export, the monitor starts regardless.
				cli, err := wmodbus.New(wmodbus.Config{Endpoint: se.Endpoint, Timeout: se.Timeout})
				if err != nil {
					return fmt.Errorf("status export %s: %w", se.Endpoint, err)
				}
				defer cli.Close()

				sw, err := writer.NewStatusWriter(writer.StatusPlan{
					UnitID:     se.UnitID,
					BaseSlot:   se.BaseSlot,
					DeviceName: se.DeviceName,
				}, cli)
				if err != nil {
					return err
				}
				go writer.NewPublisher(a.state, sw, logger.With("component", "status_export")).Run(ctx)
			}

			logger.Info("taskwatch_starting",
				"target", cfg.Monitor.Target,
				"destination", a.dispatcher.Primary().String(),
				"interval", cfg.Monitor.PollInterval.String(),
			)

			err = a.sup.RunForever(ctx, a)
			if errors.Is(err, context.Canceled) {
				logger.Info("taskwatch_stopped")
				return nil
			}
			return err
		},
	}
}
