// Package imaging opens medical image files and reports their metadata.
// PNG, JPEG, BMP and TIFF are supported.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/hupe1980/caremesh/core"
)

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff"}

// Info describes a loaded image.
type Info struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Mode     string `json:"mode"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MIMEType string `json:"mime_type"`
}

// Size returns the image size as "WxH".
func (i Info) Size() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Image is a loaded image with its raw bytes.
type Image struct {
	Info
	Data []byte
}

// Supported reports whether path has a supported extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads the image at path. A missing file yields core.ErrNotFound, an
// unsupported extension or undecodable content core.ErrUnsupportedFormat.
// Any other filesystem failure, such as a directory or an unreadable file,
// is a core.ErrInput.
func Load(path string) (*Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("image not found: %s: %w", path, core.ErrNotFound)
		}
		return nil, fmt.Errorf("stat image %s: %w: %w", path, core.ErrInput, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("image path is a directory: %s: %w", path, core.ErrInput)
	}
	if !Supported(path) {
		return nil, fmt.Errorf("unsupported image format: %s: %w", filepath.Ext(path), core.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w: %w", path, core.ErrInput, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %v: %w", path, err, core.ErrUnsupportedFormat)
	}

	return &Image{
		Info: Info{
			Path:     path,
			Format:   strings.ToUpper(format),
			Mode:     modeOf(cfg.ColorModel),
			Width:    cfg.Width,
			Height:   cfg.Height,
			MIMEType: "image/" + format,
		},
		Data: data,
	}, nil
}

// modeOf names a color model the way imaging tools usually do (RGB, RGBA, L, ...).
func modeOf(m color.Model) string {
	// Palettes are slices and cannot be compared with ==.
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA;16"
	case color.YCbCrModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "unknown"
}
