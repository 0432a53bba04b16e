package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"pricewatch/config"
	"pricewatch/internal/adapters/cache"
	"pricewatch/internal/api"
	"pricewatch/internal/binance/symbols"
	"pricewatch/internal/binance/tracker"
	"pricewatch/logger"
	"pricewatch/pkg/binance"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pricewatch",
	Short:         "Live daily percent change for a basket of Binance pairs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(file)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream prices and serve the daily change API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []tracker.Option
		if cfg.Redis.Enabled {
			client := cache.NewRedisClient(cfg.Redis)
			defer client.Close()
			opts = append(opts, tracker.WithMirror(cache.NewRedisMirror(client, cfg.Redis.Key, cfg.Redis.TTL)))
			log.Info("mirroring snapshots to redis", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
		}

		tr, err := tracker.New(cfg, log, opts...)
		if err != nil {
			return err
		}
		srv := api.NewServer(cfg.Server, tr, tr, log.Named("api"))

		log.Info("starting pricewatch",
			zap.String("version", version),
			zap.Strings("streams", tr.Registry().StreamNames()),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return tr.Run(gctx) })
		g.Go(func() error { return srv.ListenAndServe(gctx) })

		if err := g.Wait(); err != nil {
			log.Error("pricewatch stopped", zap.Error(err))
			return err
		}
		log.Info("pricewatch stopped")
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Fetch the current price of every tracked pair once over REST",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := symbols.FromStrings(cfg.Tracker.Symbols)
		if err != nil {
			return err
		}

		list := make([]string, 0, registry.Len())
		for _, s := range registry.Symbols() {
			list = append(list, string(s))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Binance.REST.Timeout)
		defer cancel()

		client := binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout)
		prices, err := client.GetTickerPrices(ctx, list)
		if err != nil {
			return fmt.Errorf("failed to fetch prices: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SYMBOL\tNAME\tPRICE\t")
		for _, s := range registry.Symbols() {
			name, _ := registry.DisplayName(s)
			price, ok := prices[string(s)]
			if !ok {
				fmt.Fprintf(w, "%s\t%s\t-\t\n", s, name)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t\n", s, name, price)
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pricewatch %s (%s)\n", version, commit)
	},
}
