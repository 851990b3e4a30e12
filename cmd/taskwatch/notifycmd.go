package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamzrod/taskwatch/internal/notify"
)

const testMessage = "✅ Test message from taskwatch! The bot is working!"

func newNotifyTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Connect once and send a test message to the notification destination",
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
			defer a.sup.Close()

			if err := a.sup.Connect(ctx); err != nil {
				return err
			}
			if err := a.dispatcher.Send(ctx, a.sup.Directory(), notify.Info, testMessage); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "❌ Failed to send message: %v\n", err)
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ Message sent successfully!")
			return nil
		},
	}
}
