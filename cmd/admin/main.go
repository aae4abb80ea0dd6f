// Command admin is the administrative client of the green-firm-house API.
// Each entity gets a subcommand tree (list, get, create, update, patch,
// delete) backed by a crud.Controller.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/anikmoz/green-firm-house/internal/admin"
	"github.com/anikmoz/green-firm-house/internal/config"
	"github.com/anikmoz/green-firm-house/internal/crud"
	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/infra"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	reg   *admin.Registry
	trace bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var apiURL string

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administer customers, product types and purchases",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAdmin()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			a.reg = newRegistry(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "base URL of the REST API (overrides ADMIN_API_URL)")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "print every state transition to stderr")

	root.AddCommand(
		newResourceCmd(a, "customers", "Manage customers",
			func(r *admin.Registry) *crud.Controller[dto.Customer] { return r.Customers }, admin.CustomerView),
		newResourceCmd(a, "product-types", "Manage product types",
			func(r *admin.Registry) *crud.Controller[dto.ProductType] { return r.ProductTypes }, admin.ProductTypeView),
		newResourceCmd(a, "customer-boughts", "Manage customer purchases",
			func(r *admin.Registry) *crud.Controller[dto.CustomerBought] { return r.CustomerBoughts }, admin.CustomerBoughtView),
	)
	return root
}

func newRegistry(cfg *config.AdminConfig) *admin.Registry {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		OnStateChange: func(from, to infra.CBState) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("api circuit breaker")
		},
	})
	doer := infra.NewBreakerDoer(&http.Client{Timeout: cfg.HTTPTimeout}, breaker)

	opts := []crud.Option{crud.WithLogger(logger)}
	if cfg.OrderedReads {
		opts = append(opts, crud.WithResponseOrdering())
	}
	return admin.NewRegistry(cfg.APIURL, doer, opts...)
}
