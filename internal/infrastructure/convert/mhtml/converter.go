// Package mhtml turns MHT/MHTML web archives into a single HTML string.
//
// The archive is a MIME message: a multipart/related body whose first
// text/html part is the page, with images and other assets attached as
// sibling parts addressed through cid: URLs. Conversion inlines those assets
// as data URIs so the renderer needs no side files.
package mhtml

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

// Converter resolves an archive to HTML: in-process parse first, external
// CLI converter as the fallback when the parse fails or yields nothing.
type Converter struct {
	cli *CLIConverter
}

func NewConverter(cliCommand string) *Converter {
	c := &Converter{}
	if cliCommand != "" {
		c.cli = NewCLIConverter(cliCommand)
	}
	return c
}

func (c *Converter) ToHTML(ctx context.Context, name string, raw []byte) (string, error) {
	html, err := Parse(raw)
	if err == nil && strings.TrimSpace(html) != "" {
		return html, nil
	}
	if err == nil {
		err = fmt.Errorf("archive produced empty html")
	}

	if c.cli == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "convert archive", err)
	}

	slog.Warn("mht_inprocess_conversion_failed",
		"file", name,
		"error", err,
	)
	html, cliErr := c.cli.Convert(ctx, raw)
	if cliErr != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "convert archive",
			fmt.Errorf("in-process: %w; cli fallback: %w", err, cliErr))
	}
	if strings.TrimSpace(html) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "convert archive",
			fmt.Errorf("cli fallback produced empty html"))
	}
	return html, nil
}

// Parse extracts the HTML document from raw archive bytes without external
// tools.
func Parse(raw []byte) (string, error) {
	reader := textproto.NewReader(newLenientLineReader(raw))
	header, err := reader.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read archive headers: %w", err)
	}

	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("parse archive content type %q: %w", contentType, err)
	}

	body, err := io.ReadAll(reader.R)
	if err != nil {
		return "", fmt.Errorf("read archive body: %w", err)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		if !strings.EqualFold(mediaType, "text/html") {
			return "", fmt.Errorf("single-part archive is %s, not text/html", mediaType)
		}
		decoded, err := decodeTransferEncoding(body, header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("multipart archive without boundary")
	}

	var html string
	assets := map[string]string{} // cid / content-location -> data URI

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read archive part: %w", err)
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		payload, err := io.ReadAll(part)
		if err != nil {
			return "", fmt.Errorf("read part payload: %w", err)
		}
		decoded, err := decodeTransferEncoding(payload, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return "", err
		}

		if html == "" && strings.EqualFold(partType, "text/html") {
			html = string(decoded)
			continue
		}

		uri := "data:" + partType + ";base64," + base64.StdEncoding.EncodeToString(decoded)
		if cid := strings.Trim(part.Header.Get("Content-ID"), "<>"); cid != "" {
			assets["cid:"+cid] = uri
		}
		if loc := strings.TrimSpace(part.Header.Get("Content-Location")); loc != "" {
			assets[loc] = uri
		}
	}

	if html == "" {
		return "", fmt.Errorf("no text/html part found in archive")
	}

	for ref, uri := range assets {
		html = strings.ReplaceAll(html, `"`+ref+`"`, `"`+uri+`"`)
		html = strings.ReplaceAll(html, `'`+ref+`'`, `'`+uri+`'`)
	}
	return html, nil
}

func decodeTransferEncoding(payload []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(payload)))
		if err != nil {
			// Real-world archives carry soft-broken QP; keep what decoded.
			if len(decoded) > 0 {
				return decoded, nil
			}
			return nil, fmt.Errorf("decode quoted-printable part: %w", err)
		}
		return decoded, nil
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(strings.Map(dropSpace, string(payload)))
		if err != nil {
			return nil, fmt.Errorf("decode base64 part: %w", err)
		}
		return decoded, nil
	default:
		return payload, nil
	}
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n':
		return -1
	}
	return r
}

// newLenientLineReader tolerates bare-LF archives, which some producers emit
// even though MIME requires CRLF.
func newLenientLineReader(raw []byte) *bufio.Reader {
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n"))
	return bufio.NewReader(bytes.NewReader(normalized))
}
