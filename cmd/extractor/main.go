package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/samvad-hq/brokennews-extractor/internal/app"
	"github.com/samvad-hq/brokennews-extractor/internal/config"
	"github.com/samvad-hq/brokennews-extractor/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "extractor failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("extractor"),
		kong.Description("Extract clean news items from a saved news page."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			_, _ = parser.Parse([]string{"--help"})
			return nil
		}
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cli.apply(cfg)

	log, err := logger.Init(cfg.LogLevel, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	input, err := cli.inputPath(stdin, stdout)
	if err != nil {
		return err
	}
	if err := app.CheckInput(input); err != nil {
		return err
	}

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize extractor", "error", err)
		return err
	}
	defer runner.Close()

	sum, err := runner.Run(ctx, input)
	if err != nil {
		return err
	}

	printSummary(stdout, sum)
	return nil
}
