package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/app"
	"event-booking-seeder/internal/service"
	"event-booking-seeder/pkg/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: seeder <command> [flags]

commands:
  generate   run the full generation pipeline on the current store state
  reseed     clear all collections, then run the pipeline

flags:
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	var clearFirst bool
	switch command {
	case "generate":
	case "reseed":
		clearFirst = true
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.L.Fatal("Failed to load config", zap.Error(err))
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.StringVar(&cfg.Generation.Profile, "profile", cfg.Generation.Profile, "generation profile: small or large")
	fs.Int64Var(&cfg.Generation.RandomSeed, "seed", cfg.Generation.RandomSeed, "random seed, 0 for a random one")
	fs.IntVar(&cfg.Generation.Workers, "workers", cfg.Generation.Workers, "concurrent booking attempts and stats shards")
	dryRun := fs.Bool("dry-run", false, "use an in-memory store instead of MongoDB")
	verbose := fs.Bool("v", false, "debug logging (every skipped attempt)")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if *verbose {
		logger.SetLevel(zapcore.DebugLevel)
	}
	defer logger.Sync()

	// 旗標覆寫環境變數後再檢查一次
	if err := cfg.Generation.Validate(); err != nil {
		logger.L.Fatal("Invalid generation config", zap.Error(err))
	}

	a, err := app.New(cfg, app.Options{DryRun: *dryRun})
	if err != nil {
		logger.L.Fatal("Failed to initialize store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	report, err := a.Pipeline.Run(ctx, service.RunOptions{Clear: clearFirst})
	stop()
	if err != nil {
		a.Close()
		logger.L.Fatal("Generation run failed", zap.String("command", command), zap.Error(err))
	}
	a.Close()

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
