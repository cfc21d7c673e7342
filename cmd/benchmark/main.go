// Command benchmark replays a wire-format feed file through the order
// book, strategy and risk gate, reporting per-round latency statistics for
// the feed-read side and the engine side separately.
//
// Grounded on _examples/lightsgoout-go-quantcup/main.go: a round replay
// loop timing engine latency with github.com/grd/stat's
// Mean/SdMean, printing a throughput line at the end. That program also
// measures Postgres fetch/persist latency; this port has no persistence
// layer (see DESIGN.md), so only feed-read and book/strategy/risk "engine"
// latency are measured.
//
// Each round runs the feed-read side and the engine side on two separate,
// OS-thread-pinned goroutines — a producer pushing wire records into the
// inbound ring, and a consumer running EventLoop.Run to drain it — the
// same split spec.md §5 describes for the live-trading path, exercised
// here under replay instead of a live feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/grd/stat"
	"go.uber.org/zap"

	"github.com/lightsgoout/lobcore/internal/book"
	"github.com/lightsgoout/lobcore/internal/clock"
	"github.com/lightsgoout/lobcore/internal/config"
	"github.com/lightsgoout/lobcore/internal/engine"
	"github.com/lightsgoout/lobcore/internal/feed"
	"github.com/lightsgoout/lobcore/internal/logging"
	"github.com/lightsgoout/lobcore/internal/metrics"
	"github.com/lightsgoout/lobcore/internal/ring"
	"github.com/lightsgoout/lobcore/internal/risk"
	"github.com/lightsgoout/lobcore/internal/strategy"
	"github.com/lightsgoout/lobcore/internal/wire"
)

const nanoToSeconds = 1e-9

// durationSlice adapts []time.Duration to grd/stat's Interface, the same
// role _examples/lightsgoout-go-quantcup/main.go's DurationSlice plays.
type durationSlice []time.Duration

func (d durationSlice) Get(i int) float64 { return float64(d[i]) }
func (d durationSlice) Len() int          { return len(d) }

func main() {
	// Config is loaded from config.yaml in the working directory (or
	// ./config), or from LOBCORE_-prefixed env vars, before flags are
	// declared, so CLI flags can default to it and still be overridden
	// individually on the command line.
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("benchmark: load config: %v", err)
	}

	feedPath := flag.String("feed", "feed.bin", "path to a feedgen-produced record file")
	rounds := flag.Int("rounds", 5, "number of full feed replays")
	minPrice := flag.Int64("min-price", cfg.Book.MinPrice, "book minimum price")
	maxPrice := flag.Int64("max-price", cfg.Book.MaxPrice, "book maximum price")
	maxOrders := flag.Int("max-orders", cfg.Book.MaxOrders, "book node pool capacity")
	everyN := flag.Uint64("every-n", cfg.Strategy.EveryN, "strategy signal cadence")
	riskMaxPrice := flag.Int64("risk-max-price", cfg.Risk.MaxAbsPrice, "risk gate max abs price")
	riskMaxQty := flag.Int64("risk-max-qty", cfg.Risk.MaxAbsQty, "risk gate max abs qty")
	mdCapacity := flag.Int("md-capacity", cfg.Ring.MDCapacity, "inbound ring capacity")
	outCapacity := flag.Int("out-capacity", cfg.Ring.OutCapacity, "outbound ring capacity")
	metricsAddr := flag.String("metrics-addr", cfg.Monitoring.PrometheusAddr, "if set, serve Prometheus metrics on this address for the run")
	flag.Parse()

	logger, err := logging.New("benchmark", cfg.Monitoring.LogLevel)
	if err != nil {
		log.Fatalf("benchmark: build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting benchmark run",
		zap.String("feed", *feedPath),
		zap.Int("rounds", *rounds),
	)

	var collector *metrics.Collector
	if *metricsAddr != "" {
		collector = metrics.New()
		logger.Info("serving metrics", zap.String("addr", *metricsAddr))
		go func() {
			if err := collector.Serve(context.Background(), *metricsAddr); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	readLatencies := make([]time.Duration, 0, *rounds)
	engineLatencies := make([]time.Duration, 0, *rounds)
	totalLatencies := make(durationSlice, 0, *rounds)
	var totalUpdates uint64

	for round := 0; round < *rounds; round++ {
		logger.Info("replay round starting", zap.Int("round", round+1), zap.Int("of", *rounds))

		f, err := os.Open(*feedPath)
		if err != nil {
			log.Fatalf("benchmark: open feed: %v", err)
		}

		totalBegin := time.Now()

		md, err := ring.New[wire.MarketUpdate](*mdCapacity)
		if err != nil {
			log.Fatalf("benchmark: md ring: %v", err)
		}
		out, err := ring.New[strategy.Signal](*outCapacity)
		if err != nil {
			log.Fatalf("benchmark: out ring: %v", err)
		}
		b, err := book.New(*minPrice, *maxPrice, uint64(*maxOrders))
		if err != nil {
			log.Fatalf("benchmark: book: %v", err)
		}
		strat := strategy.NewExample(*everyN)
		gate := risk.New(*riskMaxPrice, *riskMaxQty)

		opts := []engine.Option{}
		if collector != nil {
			opts = append(opts, engine.WithSignalDropRecorder(collector), engine.WithUpdateRecorder(collector))
			b, err = book.New(*minPrice, *maxPrice, uint64(*maxOrders), book.WithDropRecorder(collector))
			if err != nil {
				log.Fatalf("benchmark: book: %v", err)
			}
		}
		loop := engine.New(md, out, b, strat, gate, clock.New(), 0, opts...)

		src := feed.NewFileSource(f)
		handler := feed.NewHandler(md)

		consumerDone := make(chan struct{})
		engineBegin := time.Now()
		go func() {
			defer close(consumerDone)
			loop.Run()
		}()

		readBegin := time.Now()
		producerDone := make(chan struct{})
		go func() {
			defer close(producerDone)
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if _, err := handler.Drain(src); err != nil {
				logger.Error("feed drain failed", zap.Error(err))
			}
		}()

		<-producerDone
		readLatencies = append(readLatencies, time.Since(readBegin))
		f.Close()

		var sig strategy.Signal
		for md.Size() > 0 || out.Size() > 0 {
			if !out.Pop(&sig) {
				runtime.Gosched()
			}
		}
		loop.Stop()
		<-consumerDone
		engineLatencies = append(engineLatencies, time.Since(engineBegin))
		totalUpdates += loop.UpdatesProcessed()

		totalLatencies = append(totalLatencies, time.Since(totalBegin))
	}

	engineStats := durationSlice(engineLatencies)
	readStats := durationSlice(readLatencies)

	engineMean := stat.Mean(engineStats)
	engineSd := stat.SdMean(engineStats, engineMean)
	fmt.Printf("[engine] mean(latency) = %1.6fs sd(latency) = %1.6fs (n=%d)\n",
		engineMean*nanoToSeconds, engineSd*nanoToSeconds, engineStats.Len())

	readMean := stat.Mean(readStats)
	readSd := stat.SdMean(readStats, readMean)
	fmt.Printf("[read+replay] mean(latency) = %1.6fs sd(latency) = %1.6fs (n=%d)\n",
		readMean*nanoToSeconds, readSd*nanoToSeconds, readStats.Len())

	totalMean := stat.Mean(totalLatencies)
	fmt.Printf("[round] mean(latency) = %1.6fs (n=%d)\n", totalMean*nanoToSeconds, totalLatencies.Len())
	fmt.Printf("[updates] total processed = %d\n", totalUpdates)
}
