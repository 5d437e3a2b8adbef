package mhtml

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLIConverter shells out to an external archive converter. The command is
// invoked as `<command> <input.mht> <output.html>` against temp files and the
// HTML is read back from the output path.
type CLIConverter struct {
	command string
}

func NewCLIConverter(command string) *CLIConverter {
	return &CLIConverter{command: command}
}

func (c *CLIConverter) Convert(ctx context.Context, raw []byte) (string, error) {
	workdir, err := os.MkdirTemp("", "mht2html_")
	if err != nil {
		return "", fmt.Errorf("create conversion workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	inputPath := filepath.Join(workdir, "input.mht")
	outputPath := filepath.Join(workdir, "output.html")
	if err := os.WriteFile(inputPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("write converter input: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, inputPath, outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("run %s: %w: %s", c.command, err, strings.TrimSpace(string(out)))
	}

	html, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("read converter output: %w", err)
	}
	return string(html), nil
}
