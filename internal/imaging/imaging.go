// Package imaging validates uploaded time-card images and builds previews.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for content that is not a recognised image format.
var ErrNotImage = errors.New("not an image")

// headerSize is how much of the file filetype needs to match a signature.
const headerSize = 262

// Kind describes sniffed image content.
type Kind struct {
	MIME      string // e.g. "image/png"
	Extension string // e.g. "png"
}

// Sniff identifies the image format from the leading bytes.
func Sniff(b []byte) (Kind, error) {
	head := b
	if len(head) > headerSize {
		head = head[:headerSize]
	}
	if !filetype.IsImage(head) {
		return Kind{}, ErrNotImage
	}
	t, err := filetype.Image(head)
	if err != nil {
		return Kind{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Kind{MIME: t.MIME.Value, Extension: t.Extension}, nil
}

// Dimensions decodes only the image header and returns its size. Formats
// without a registered decoder (heic, for one) return an error.
func Dimensions(b []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// DataURL encodes the image inline for previews.
func DataURL(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// Extension picks the object-name extension: the file name's own extension
// when it has one, otherwise the sniffed one.
func Extension(name string, kind Kind) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if kind.Extension != "" {
		return kind.Extension
	}
	return "bin"
}

// Preview is what the workflow shows for a selected file before extraction.
type Preview struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// NewPreview validates b as an image and builds its preview.
func NewPreview(name string, b []byte) (Preview, error) {
	kind, err := Sniff(b)
	if err != nil {
		return Preview{}, fmt.Errorf("%s: %w", name, err)
	}
	p := Preview{
		Name:        name,
		ContentType: kind.MIME,
		URL:         DataURL(kind.MIME, b),
	}
	// Dimensions are informational; unsupported decoders are not an error.
	if w, h, err := Dimensions(b); err == nil {
		p.Width, p.Height = w, h
	}
	return p, nil
}
