package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PNG writes img as a PNG image.
func PNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

// WriteFile exports img to path, picking the format from its extension.
// Paths without a known extension get .png appended.
func WriteFile(path string, img image.Image) (string, error) {
	var write func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		write = PDF
	case ".png":
		write = PNG
	default:
		path += ".png"
		write = PNG
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := write(f, img); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
