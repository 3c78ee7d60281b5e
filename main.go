package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	av "olps/api/alpha_vantage"
	"olps/config"
	c "olps/core"
	"olps/execution"
	r "olps/repos"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	avClient := av.GetClient(cfg.AlphaVantageApiKey)

	// history comes straight from alpha vantage unless there is a database to cache it in
	var source c.PriceSource = avClient
	if cfg.DatabaseUrl != "" {
		postgresConnection, err := r.GetPostgresConnection(ctx, cfg.DatabaseUrl)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer postgresConnection.Close()

		if err := postgresConnection.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		source = c.NewCachedPriceSource(postgresConnection, avClient)
	}

	start := time.Now()
	log.Printf("Running %v over %v\n\tgranularity: %v\n\tlookback: %v\n\tinitial wealth: %v",
		cfg.Strategy.DisplayName(), cfg.Symbols, cfg.Granularity, cfg.Lookback, cfg.InitialWealth)

	history, err := source.FetchHistory(ctx, cfg.Symbols, cfg.Lookback, cfg.Granularity)
	if err != nil {
		log.Fatalf("Failed to fetch price history: %v", err)
	}
	log.Printf("Fetched %v epochs of prices (time: %v)", history.Len(), time.Since(start))

	optimizer, err := c.NewOptimizer(cfg.Strategy, len(history.Universe), cfg.Epsilon)
	if err != nil {
		log.Fatalf("Failed to create optimizer: %v", err)
	}

	tracker, err := c.NewTracker(history.Universe, cfg.InitialWealth)
	if err != nil {
		log.Fatalf("Failed to create tracker: %v", err)
	}

	driver, err := c.NewDriver(history, optimizer, tracker)
	if err != nil {
		log.Fatalf("Failed to load price history: %v", err)
	}
	driver.WithGranularity(cfg.Granularity)

	if err := driver.Backfill(ctx); err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	summary := driver.Summary()
	log.Printf("Backfill summary\n\tepochs: %v\n\tfinal wealth: %.6f\n\ttotal return: %.2f%%\n\tannualized return: %.2f%%\n\tlatest weights: %v",
		summary.Epochs, summary.FinalWealth, summary.TotalReturn*100, summary.AnnualizedReturn*100, summary.LatestWeights)

	sc := &c.ServiceContext{
		Context:  ctx,
		Strategy: cfg.Strategy,
		Driver:   driver,
	}

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc, cfg.Addr())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting OLPS server on %s", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Live {
		broker := execution.NewPaperBroker(cfg.PaperCash)
		g.Go(func() error {
			return driver.RunLive(gctx, c.LiveSettings{
				Interval: cfg.LiveInterval,
				Backoff:  cfg.LiveBackoff,
				Source:   source,
				Executor: execution.NewRebalancer(broker),
			})
		})
	}

	g.Go(func() error {
		// wait here until ctrl+C or until the server falls over
		<-gctx.Done()
		log.Println("Shutting down gracefully...")

		// this gives the server 10 seconds to shutdown gracefully
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return s.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	log.Println("Server stopped successfully")
}
