package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/metrics"
	"github.com/elys-network/yieldzap/internal/simulations"
	"github.com/elys-network/yieldzap/internal/state"
	"github.com/elys-network/yieldzap/internal/types"
	"github.com/elys-network/yieldzap/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deployment, quote and journal API",
	Long: `Serve the read-only HTTP API. Quotes for the configured network are priced
against a simulated deployment whose committed units feed the journal and
the Prometheus metrics. The journal is stored in PostgreSQL when
YIELDZAP_DATABASE_URL is set and kept in memory otherwise.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, registry, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		journal state.Journal = state.NewMemoryJournal()
		health  func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		db, err := state.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer state.CloseDB(db)
		if err := state.EnsureSchema(ctx, db); err != nil {
			return err
		}
		journal = state.NewPostgresJournal(db)
		health = func(ctx context.Context) error { return state.TestDBConnection(ctx, db) }
	} else {
		log.Warn().Msg("YIELDZAP_DATABASE_URL is not set. Receipts are kept in memory only.")
	}

	m := metrics.NewMetrics("")
	quoters := make(map[types.Environment]web.Quoter)

	d, err := registry.Resolve(cfg.Network)
	if err != nil {
		return err
	}
	sb, err := simulations.NewSandbox(simulations.SandboxConfig{
		Deployment:  d,
		Parameters:  cfg.Parameters,
		HostOptions: []ledger.Option{ledger.WithSink(journal), ledger.WithSink(m), ledger.WithObserver(m)},
	})
	if err != nil {
		return err
	}
	quoters[d.Environment] = sb.Client

	server := web.NewWebServer(web.Options{
		Addr:     cfg.HTTPAddr,
		Registry: registry,
		Journal:  journal,
		Metrics:  m.Handler(),
		Quoters:  quoters,
		Health:   health,
	})
	log.Info().
		Str("network", string(d.Environment)).
		Str("addr", cfg.HTTPAddr).
		Msg("Starting yieldzap API")
	return server.Start(ctx)
}
