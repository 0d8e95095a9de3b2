package imagefile

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/bryanwahyu/imagesense/internal/domain/ai"
)

// FallbackMIME is used when the bytes are not a format we can sniff.
const FallbackMIME = "image/jpeg"

// Info describes what the sniffer found in the file header.
type Info struct {
	Format string
	Width  int
	Height int
}

// Encode reads the file and returns it base64-encoded with a MIME type
// derived from its contents.
func Encode(path string) (ai.Image, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.Image{}, Info{}, fmt.Errorf("read image: %w", err)
	}

	info, mime := Sniff(data)
	return ai.Image{
		Name:     filepath.Base(path),
		MIMEType: mime,
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, info, nil
}

// Sniff decodes only the image header. Unknown formats yield an empty Info
// and FallbackMIME.
func Sniff(data []byte) (Info, string) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, FallbackMIME
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, "image/" + format
}
