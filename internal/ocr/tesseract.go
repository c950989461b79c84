package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract CLI
type Tesseract struct {
	Path string
}

// NewTesseract creates an engine using the binary at path
func NewTesseract(path string) *Tesseract {
	if path == "" {
		path = DefaultTesseractPath
	}
	return &Tesseract{Path: path}
}

// Available checks the binary resolves and answers --version
func (t *Tesseract) Available(ctx context.Context) error {
	bin, err := exec.LookPath(t.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	if err := exec.CommandContext(ctx, bin, "--version").Run(); err != nil {
		return fmt.Errorf("%w: %s --version: %v", ErrOCRUnavailable, bin, err)
	}
	return nil
}

// Recognize prints recognized text of imagePath to stdout
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, langs []string) (string, error) {
	if len(langs) == 0 {
		langs = LangEnglish
	}
	cmd := exec.CommandContext(ctx, t.Path, imagePath, "stdout", "-l", strings.Join(langs, "+"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("tesseract: %w", err)
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, msg)
	}
	return stdout.String(), nil
}
