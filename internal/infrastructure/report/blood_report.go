// Package report renders assistant answers to PDF.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/signintech/gopdf"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

const (
	fontFamily   = "DejaVu"
	margin       = 40.0
	textWidth    = 595.28 - 2*margin // A4 width in points
	pageBottom   = 841.89 - margin
	lineHeight   = 14.0
	sectionSpace = 10.0
)

// ErrNoFont is returned when none of the configured TTF fonts can be loaded.
var ErrNoFont = errors.New("no usable font for PDF export")

// Renderer turns a blood report analysis into a PDF document.
type Renderer struct {
	fontPaths []string
	now       func() time.Time
}

// NewRenderer creates a renderer that loads the first readable font in fontPaths.
func NewRenderer(fontPaths []string) *Renderer {
	return &Renderer{fontPaths: fontPaths, now: time.Now}
}

type document struct {
	pdf gopdf.GoPdf
}

// BloodReport renders the analysis and returns the PDF bytes.
func (r *Renderer) BloodReport(a *entities.BloodReportAnalysis) ([]byte, error) {
	if a == nil {
		return nil, errors.New("analysis is required")
	}

	d := &document{}
	d.pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	d.pdf.SetMargins(margin, margin, margin, margin)
	d.pdf.AddPage()

	if err := r.loadFont(&d.pdf); err != nil {
		return nil, err
	}

	if err := d.heading("Blood Report Analysis", 20); err != nil {
		return nil, err
	}
	if err := d.paragraph(fmt.Sprintf("Generated: %s", r.now().Format("Jan 2, 2006 15:04")), 10); err != nil {
		return nil, err
	}
	d.pdf.Br(sectionSpace)

	if err := d.heading(fmt.Sprintf("Overall severity: %s", a.Severity), 14); err != nil {
		return nil, err
	}
	d.pdf.Br(sectionSpace / 2)

	if err := d.heading("Summary", 14); err != nil {
		return nil, err
	}
	if err := d.paragraph(a.Summary, 11); err != nil {
		return nil, err
	}
	d.pdf.Br(sectionSpace)

	if err := d.heading("Key findings", 14); err != nil {
		return nil, err
	}
	if len(a.KeyFindings) == 0 {
		if err := d.paragraph("- No notable findings.", 11); err != nil {
			return nil, err
		}
	}
	for _, f := range a.KeyFindings {
		line := fmt.Sprintf("- %s: %s [%s]", f.Test, f.Value, f.Finding)
		if err := d.paragraph(line, 11); err != nil {
			return nil, err
		}
		if f.Interpretation != "" {
			if err := d.paragraph("  "+f.Interpretation, 10); err != nil {
				return nil, err
			}
		}
	}
	d.pdf.Br(sectionSpace)

	if len(a.SuggestedPrecautions) > 0 {
		if err := d.heading("Suggested precautions", 14); err != nil {
			return nil, err
		}
		for _, p := range a.SuggestedPrecautions {
			if err := d.paragraph("- "+p, 11); err != nil {
				return nil, err
			}
		}
		d.pdf.Br(sectionSpace)
	}

	disclaimer := a.Disclaimer
	if strings.TrimSpace(disclaimer) == "" {
		disclaimer = entities.ReportDisclaimer
	}
	if err := d.paragraph(disclaimer, 9); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := d.pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err != nil {
			lastErr = err
			continue
		}
		log.Debug().Str("path", path).Msg("Loaded PDF font")
		return nil
	}
	if lastErr == nil {
		return ErrNoFont
	}
	return fmt.Errorf("%w: %v", ErrNoFont, lastErr)
}

func (d *document) heading(text string, size float64) error {
	return d.write(text, size, size+6)
}

func (d *document) paragraph(text string, size float64) error {
	return d.write(text, size, lineHeight*size/11)
}

func (d *document) write(text string, size, height float64) error {
	if err := d.pdf.SetFont(fontFamily, "", size); err != nil {
		return err
	}
	lines, err := d.pdf.SplitText(text, textWidth)
	if err != nil {
		// SplitText fails on empty input
		lines = []string{text}
	}
	for _, l := range lines {
		if d.pdf.GetY()+height > pageBottom {
			d.pdf.AddPage()
		}
		if err := d.pdf.Cell(nil, l); err != nil {
			return err
		}
		d.pdf.Br(height)
	}
	return nil
}
