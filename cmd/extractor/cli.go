package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/brokennews-extractor/internal/app"
	"github.com/samvad-hq/brokennews-extractor/internal/config"
)

const inputPrompt = "Path to the HTML file: "

// CLI is the command line surface of the extractor.
type CLI struct {
	Input    string `arg:"" optional:"" name:"input" help:"HTML file to extract news from. Prompted for when omitted."`
	Output   string `short:"o" name:"output" help:"JSON file for the valid news items (overrides OUTPUT_FILE)."`
	LogFile  string `name:"log-file" help:"Diagnostics file for skipped blocks (overrides DIAGNOSTICS_FILE)."`
	Profile  string `short:"p" name:"profile" help:"Site profile id (overrides PROFILE)."`
	LogLevel string `name:"log-level" help:"Application log level: debug, info, warn or error (overrides LOG_LEVEL)."`
}

// apply copies non-empty flag values over cfg.
func (c *CLI) apply(cfg *config.Config) {
	if v := strings.TrimSpace(c.Output); v != "" {
		cfg.OutputFile = v
	}
	if v := strings.TrimSpace(c.LogFile); v != "" {
		cfg.DiagnosticsFile = v
	}
	if v := strings.TrimSpace(c.Profile); v != "" {
		cfg.Profile = v
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
}

// inputPath returns the positional input, prompting on stdout when it was not given.
func (c *CLI) inputPath(stdin io.Reader, stdout io.Writer) (string, error) {
	if v := strings.TrimSpace(c.Input); v != "" {
		return v, nil
	}

	fmt.Fprint(stdout, inputPrompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", app.ErrNoInput
	}
	return path, nil
}

func printSummary(w io.Writer, sum app.Summary) {
	fmt.Fprintf(w, "Done. Valid news items found: %d\n", sum.ValidItems)
	fmt.Fprintf(w, "Result: %s\n", sum.OutputFile)
	fmt.Fprintf(w, "Logs: %s\n", sum.DiagnosticsFile)
}
