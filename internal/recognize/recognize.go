// Package recognize produces raw text from statement files. It is the
// upstream collaborator of the extraction pipeline: the pipeline consumes
// its output as an opaque text blob and treats failures here as upstream
// input errors, never as extraction failures.
package recognize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxFileBytes caps the input file size.
const maxFileBytes = 20 << 20 // 20MB

// minTextChars is the minimum amount of recognized text considered
// meaningful for a statement.
const minTextChars = 50

// ProgressFunc reports fractional progress in [0,1]. May be nil.
type ProgressFunc func(frac float64)

// Recognizer turns a statement file into raw text, optionally reporting
// fractional progress along the way.
type Recognizer interface {
	Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error)
}

// ForFile picks a recognizer by file extension.
func ForFile(path string) (Recognizer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return &PDFText{}, nil
	case ".txt", ".text":
		return &PlainText{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .pdf or .txt)", filepath.Ext(path))
	}
}

// Auto dispatches to the recognizer matching each file's extension.
type Auto struct{}

// Recognize implements Recognizer.
func (Auto) Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	r, err := ForFile(path)
	if err != nil {
		return "", err
	}
	return r.Recognize(ctx, path, progress)
}

// PlainText reads pre-recognized text straight from disk. Useful when the
// optical step already happened elsewhere.
type PlainText struct{}

// Recognize implements Recognizer.
func (PlainText) Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	if err := checkFileSize(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if len(text) < minTextChars {
		return "", fmt.Errorf("file %s contains too little text (%d chars)", filepath.Base(path), len(text))
	}
	if progress != nil {
		progress(1)
	}
	return text, nil
}

func checkFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxFileBytes {
		return fmt.Errorf("file %s is too large (%d bytes, max %d)", filepath.Base(path), info.Size(), maxFileBytes)
	}
	return nil
}

// textQuality returns the ratio of basic readable characters to total
// characters. A strict ASCII check: unicode.IsLetter is too broad and
// matches the accented garbage produced by identity-encoded fonts.
func textQuality(text string) float64 {
	total := 0
	readable := 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(`.,-/:;()'"£$€%&@#!?+=*`, r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// statementWords appear in virtually every bank statement. Text containing
// none of them is likely garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "sort code",
	"money", "paid", "opening", "closing", "transfer", "direct",
	"number", "page", "period",
}

// isReadableText checks that text is long enough, mostly readable, and
// contains at least one word a statement would have.
func isReadableText(text string) bool {
	if len(strings.TrimSpace(text)) <= minTextChars {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range statementWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
