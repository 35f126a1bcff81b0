// Command captchaflow drives the challenge solver against a live page.
//
// Usage:
//
//	captchaflow solve --url https://example.test/signup
//	captchaflow solve --url ... --config config.yaml --model model.onnx
//	captchaflow version
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/solvekit/captchaflow"
	"github.com/solvekit/captchaflow/internal/metrics"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "solve":
		runSolve(os.Args[2:])
	case "version":
		fmt.Printf("captchaflow %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	url := fs.String("url", "", "Page with the challenge widget")
	configPath := fs.String("config", "", "Path to config file")
	modelPath := fs.String("model", "", "Path to ONNX detection model")
	metricsAddr := fs.String("metrics-addr", "", "Expose Prometheus metrics on this address")
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintln(os.Stderr, "solve: --url is required")
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	collector := metrics.NewCollector("captchaflow", logger)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, collector, logger)
	}

	opts := []captchaflow.Option{
		captchaflow.WithLogger(logger),
		captchaflow.WithMetrics(collector),
	}
	if *configPath != "" {
		opts = append(opts, captchaflow.WithConfigFile(*configPath))
	}
	if *modelPath != "" {
		opts = append(opts, captchaflow.WithModel(*modelPath))
	}

	solver, err := captchaflow.New(opts...)
	if err != nil {
		logger.Fatal("Failed to assemble solver", zap.Error(err))
	}
	defer solver.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := solver.Solve(ctx, *url); err != nil {
		logger.Fatal("Solve failed", zap.Error(err))
	}
	logger.Info("Solve finished", zap.String("url", *url))
}

func serveMetrics(addr string, collector *metrics.Collector, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server stopped", zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`captchaflow - grid image challenge solver

Usage:
  captchaflow solve --url <page> [--config file] [--model file] [--metrics-addr :9090]
  captchaflow version
  captchaflow help`)
}
