package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/123qassim/mumbso/internal/apiclient"
	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/pkg/httpclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	var apiURL string

	rootCmd := &cobra.Command{
		Use:     "mpesactl",
		Short:   "Send M-Pesa payment prompts and follow them until they settle",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.Client.BaseURL = apiURL
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = logger
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Payments API base URL (defaults to client.base_url)")

	rootCmd.AddCommand(a.payCmd())
	rootCmd.AddCommand(a.statusCmd())
	rootCmd.AddCommand(a.eventsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) client() *apiclient.Client {
	return apiclient.New(a.cfg.Client.BaseURL, httpclient.NewHTTPClient(a.cfg.Client.Timeout))
}
