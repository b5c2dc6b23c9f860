package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
)

// Processor loads source sprites and encodes rotated frames
type Processor struct {
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Sprite-Rotator/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	if strings.HasSuffix(strings.ToLower(parsedURL.Path), ".tga") {
		return decodeTGA(bytes.NewReader(imageData))
	}
	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads a sprite from disk. PNG, JPEG, GIF, WebP and TGA are supported.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	low := strings.ToLower(path)

	// TGA has no magic number, so it is picked by extension.
	if strings.HasSuffix(low, ".tga") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return decodeTGA(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// decodeImageFromBytes decodes an image from byte data by its signature
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	img, _, err := Decode(data)
	return img, err
}

func decodeTGA(r io.Reader) (image.Image, error) {
	img, err := tga.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tga: %w", err)
	}
	return img, nil
}

// SaveImage writes img to path. Lossless WebP is encoded in pure Go, lossy
// WebP goes through libwebp. Quality applies to jpg and lossy webp.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if lossless {
			return nativewebp.Encode(f, img, nil)
		}
		return webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	case "png":
		return imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestCompression))
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// SupportedFormats lists the output formats SaveImage accepts
func SupportedFormats() []string {
	return []string{"png", "jpg", "jpeg", "webp"}
}
