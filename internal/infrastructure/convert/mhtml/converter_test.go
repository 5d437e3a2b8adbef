package mhtml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const multipartArchive = "From: <Saved by test>\r\n" +
	"Subject: Sample page\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/related; boundary=\"----=_Part_0\"\r\n" +
	"\r\n" +
	"------=_Part_0\r\n" +
	"Content-Type: text/html; charset=\"utf-8\"\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"<html><body><p>caf=C3=A9</p><img src=3D\"cid:img1\"></body></html>\r\n" +
	"------=_Part_0\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"Content-ID: <img1>\r\n" +
	"\r\n" +
	"aGVsbG8=\r\n" +
	"------=_Part_0--\r\n"

func TestParseMultipartArchive(t *testing.T) {
	html, err := Parse([]byte(multipartArchive))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(html, "café") {
		t.Fatalf("expected quoted-printable decoded body, got %q", html)
	}
	if strings.Contains(html, "cid:img1") {
		t.Fatalf("expected cid reference inlined, got %q", html)
	}
	if !strings.Contains(html, "data:image/png;base64,aGVsbG8=") {
		t.Fatalf("expected data URI for attached image, got %q", html)
	}
}

func TestParseSinglePartArchive(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"<html><body>plain=20page</body></html>\r\n"

	html, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(html, "plain page") {
		t.Fatalf("unexpected html %q", html)
	}
}

func TestParseToleratesBareLF(t *testing.T) {
	raw := strings.ReplaceAll(multipartArchive, "\r\n", "\n")
	html, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() on bare-LF archive error = %v", err)
	}
	if !strings.Contains(html, "café") {
		t.Fatalf("unexpected html %q", html)
	}
}

func TestParseRejectsArchiveWithoutHTML(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"b\"\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: image/png\r\n" +
		"\r\n" +
		"x\r\n" +
		"--b--\r\n"

	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatalf("expected error for archive without html part")
	}
}

func TestConverterFallsBackToCLI(t *testing.T) {
	script := filepath.Join(t.TempDir(), "convert.sh")
	// $1 input, $2 output
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho '<html><body>from cli</body></html>' > \"$2\"\n"), 0o755); err != nil {
		t.Fatalf("write stub converter: %v", err)
	}

	converter := NewConverter(script)
	html, err := converter.ToHTML(context.Background(), "broken.mht", []byte("this is not a mime archive"))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(html, "from cli") {
		t.Fatalf("expected cli fallback output, got %q", html)
	}
}

func TestConverterWithoutCLIFailsHard(t *testing.T) {
	converter := NewConverter("")
	if _, err := converter.ToHTML(context.Background(), "broken.mht", []byte("garbage")); err == nil {
		t.Fatalf("expected conversion failure without cli fallback")
	}
}

func TestConverterPrefersInProcessParse(t *testing.T) {
	// A failing CLI command proves the fallback was never invoked.
	converter := NewConverter("/nonexistent/converter")
	html, err := converter.ToHTML(context.Background(), "ok.mht", []byte(multipartArchive))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(html, "café") {
		t.Fatalf("unexpected html %q", html)
	}
}
