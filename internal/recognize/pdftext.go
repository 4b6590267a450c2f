package recognize

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts embedded text from a PDF statement. It tries row-based
// extraction first (best layout preservation), then two plain-text paths,
// and rejects output that fails the readability checks rather than handing
// garbage to the extraction pipeline. Image-only/scanned PDFs have no
// embedded text and fail here.
type PDFText struct{}

// Recognize implements Recognizer.
func (PDFText) Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	if err := checkFileSize(path); err != nil {
		return "", err
	}

	text, err := extractPDFText(ctx, path, progress)
	if err != nil {
		return "", err
	}
	if !isReadableText(text) {
		return "", fmt.Errorf("no readable text in %s; the PDF may be image-based or use custom font encodings", path)
	}
	if progress != nil {
		progress(1)
	}
	return text, nil
}

// extractPDFText runs the extraction methods in order of fidelity. The pdf
// library panics on some malformed files, so the whole pass runs under a
// recover.
func extractPDFText(ctx context.Context, path string, progress ProgressFunc) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf %s has no pages", path)
	}

	if text := extractByRow(ctx, r, numPages, progress); isReadableText(text) {
		return text, nil
	}
	if text := extractByPagePlainText(ctx, r, numPages); isReadableText(text) {
		return text, nil
	}
	if text := extractByReaderPlainText(r); isReadableText(text) {
		return text, nil
	}
	return "", fmt.Errorf("no extraction method produced readable text for %s", path)
}

// extractByRow walks each page's text rows top to bottom.
func extractByRow(ctx context.Context, r *pdf.Reader, numPages int, progress ProgressFunc) string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return ""
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
		if progress != nil {
			progress(float64(i) / float64(numPages))
		}
	}
	return strings.Join(pages, "\n\n")
}

// extractByPagePlainText uses each page's font map.
func extractByPagePlainText(ctx context.Context, r *pdf.Reader, numPages int) string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return ""
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n")
}

// extractByReaderPlainText is the whole-document fallback path.
func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
