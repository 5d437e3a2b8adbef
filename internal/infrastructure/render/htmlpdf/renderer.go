// Package htmlpdf renders HTML to PDF through an external
// wkhtmltopdf-compatible binary.
package htmlpdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Renderer struct {
	command string
}

func New(command string) *Renderer {
	if command == "" {
		command = "wkhtmltopdf"
	}
	return &Renderer{command: command}
}

// Render writes the PDF for html to outputPath. The output must be non-empty
// and parse as a PDF with at least one page; some renderers exit 0 while
// emitting nothing on malformed input. Any failure removes the partial
// artifact before returning.
func (r *Renderer) Render(ctx context.Context, html string, outputPath string) error {
	workdir, err := os.MkdirTemp("", "html2pdf_")
	if err != nil {
		return fmt.Errorf("create render workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	inputPath := filepath.Join(workdir, "input.html")
	if err := os.WriteFile(inputPath, []byte(wrapDocument(html)), 0o644); err != nil {
		return fmt.Errorf("write render input: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.command, "--page-size", "A4", "--quiet", inputPath, outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		r.discard(outputPath)
		return fmt.Errorf("run %s: %w: %s", r.command, err, strings.TrimSpace(string(out)))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("stat rendered pdf: %w", err)
	}
	if info.Size() == 0 {
		r.discard(outputPath)
		return fmt.Errorf("renderer reported success but produced an empty pdf")
	}

	if err := validatePDF(outputPath); err != nil {
		r.discard(outputPath)
		return err
	}
	return nil
}

func (r *Renderer) discard(outputPath string) {
	_ = os.Remove(outputPath)
}

func validatePDF(path string) error {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("rendered file is not a readable pdf: %w", err)
	}
	defer f.Close()

	if reader.NumPage() < 1 {
		return fmt.Errorf("rendered pdf has no pages")
	}
	return nil
}

// wrapDocument turns a bare fragment into a full HTML document; resolved
// archives sometimes carry only the body markup.
func wrapDocument(html string) string {
	if strings.Contains(strings.ToLower(html), "<html") {
		return html
	}
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"></head><body>\n" + html + "\n</body></html>"
}
