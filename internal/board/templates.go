package board

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// DirTemplates loads templates from <Dir>/<name>.png.
type DirTemplates struct {
	Dir string
}

func (d DirTemplates) LoadTemplate(ctx context.Context, name string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid template name %q", name)
	}
	f, err := os.Open(filepath.Join(d.Dir, name+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %q: %w", name, err)
	}
	return img, nil
}

// List returns the template names available in Dir.
func (d DirTemplates) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.Dir, "*.png"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".png"))
	}
	return names, nil
}

var _ TemplateLoader = DirTemplates{}
