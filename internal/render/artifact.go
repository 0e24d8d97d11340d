package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/web3-frozen/daily-report/internal/report"
)

// Format is an output artifact kind.
type Format string

const (
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormats reads a comma separated list, ignoring unknown entries.
func ParseFormats(s string) []Format {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case FormatHTML, FormatXLSX, FormatPDF, FormatJSON:
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func (f Format) contentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Artifact is one rendered file.
type Artifact struct {
	Format      Format
	Name        string
	Path        string
	ContentType string
	Data        []byte
}

// FileName is the artifact name for a report date.
func FileName(date string, f Format) string {
	return fmt.Sprintf("Web3_Daily_Report_%s.%s", date, f)
}

// JSON writes the whole bundle, tables included.
func JSON(w io.Writer, b *report.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(b)
}

// Renderer writes the configured artifact formats into a directory.
type Renderer struct {
	dir     string
	formats []Format
	pdf     *PDFPrinter
	logger  *slog.Logger
}

func NewRenderer(dir string, formats []Format, pdf *PDFPrinter, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, formats: formats, pdf: pdf, logger: logger}
}

// Formats returns the configured formats in render order.
func (r *Renderer) Formats() []Format { return r.formats }

// Render produces every configured artifact. A failing format is logged and
// skipped; the returned error joins those failures while the artifacts that
// did succeed are still returned. HTML comes first when present.
func (r *Renderer) Render(ctx context.Context, b *report.Bundle) ([]Artifact, error) {
	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	var (
		out     []Artifact
		errs    []error
		htmlDoc []byte
	)
	for _, f := range r.orderedFormats() {
		data, err := r.bytes(ctx, f, b, &htmlDoc)
		if err == nil {
			a := Artifact{Format: f, Name: FileName(b.Date, f), ContentType: f.contentType(), Data: data}
			if r.dir != "" {
				a.Path = filepath.Join(r.dir, a.Name)
				err = os.WriteFile(a.Path, data, 0o644)
			}
			if err == nil {
				out = append(out, a)
				r.logger.Info("artifact rendered", "format", f, "path", a.Path, "bytes", len(data))
				continue
			}
		}
		r.logger.Error("render failed", "format", f, "error", err)
		errs = append(errs, fmt.Errorf("render %s: %w", f, err))
	}
	return out, errors.Join(errs...)
}

func (r *Renderer) orderedFormats() []Format {
	out := make([]Format, 0, len(r.formats))
	for _, f := range r.formats {
		if f == FormatHTML {
			out = append(out, f)
		}
	}
	for _, f := range r.formats {
		if f != FormatHTML {
			out = append(out, f)
		}
	}
	return out
}

func (r *Renderer) bytes(ctx context.Context, f Format, b *report.Bundle, htmlDoc *[]byte) ([]byte, error) {
	switch f {
	case FormatHTML:
		data, err := HTMLBytes(b)
		if err == nil {
			*htmlDoc = data
		}
		return data, err
	case FormatXLSX:
		return XLSXBytes(b)
	case FormatJSON:
		var sb strings.Builder
		if err := JSON(&sb, b); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	case FormatPDF:
		if r.pdf == nil {
			return nil, errors.New("pdf printer not configured")
		}
		if *htmlDoc == nil {
			data, err := HTMLBytes(b)
			if err != nil {
				return nil, err
			}
			*htmlDoc = data
		}
		return r.pdf.Print(ctx, *htmlDoc)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}
