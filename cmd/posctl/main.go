// Command posctl runs operational tasks: schema migrations and manual job
// triggers.
//
//	posctl migrate
//	posctl jobs trigger dashboard:warmup
//	posctl jobs trigger receipt:email -transaction 42
//	posctl jobs stats
//	posctl jobs scheduled
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-pos/odyssey-pos/cmd/posctl/cli"
	"github.com/odyssey-pos/odyssey-pos/internal/app"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)

	switch args[0] {
	case "migrate":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			return 1
		}
		return 0
	case "jobs":
		return runJobs(ctx, cfg, logger, args[1:])
	default:
		usage()
		return 2
	}
}

func runJobs(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	jc := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		if err := jc.Close(); err != nil {
			logger.Warn("close jobs cli", slog.Any("error", err))
		}
	}()

	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
		txID := fs.Int64("transaction", 0, "transaction id for receipt:email")
		email := fs.String("email", "", "override recipient for receipt:email")
		if len(args) < 2 {
			usage()
			return 2
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		info, err := jc.Trigger(ctx, args[1], *txID, *email)
		if err != nil {
			logger.Error("trigger job", slog.String("job", args[1]), slog.Any("error", err))
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jc.InspectQueue()
		if err != nil {
			logger.Error("inspect queue", slog.Any("error", err))
			return 1
		}
		if err := cli.WriteStats(os.Stdout, stats); err != nil {
			return 1
		}
	case "scheduled":
		tasks, err := jc.ListScheduled(20)
		if err != nil {
			logger.Error("list scheduled", slog.Any("error", err))
			return 1
		}
		for _, t := range tasks {
			fmt.Printf("%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04"))
		}
	default:
		usage()
		return 2
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: posctl migrate | posctl jobs trigger <dashboard:warmup|receipt:email|idempotency:cleanup> [-transaction N] [-email addr] | posctl jobs stats | posctl jobs scheduled")
}
