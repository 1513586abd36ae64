package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// the pixel budget. They are rejected before any pixel is decoded.
var ErrImageTooLarge = errors.New("image dimensions too large")

const defaultMaxPixels = 40_000_000

// Optimiser scales images down to MaxWidth and re-encodes them as lossy webp.
type Optimiser struct {
	MaxWidth  int
	Quality   float32
	MaxPixels int
}

func NewOptimiser(maxWidth int) *Optimiser {
	return &Optimiser{MaxWidth: maxWidth, Quality: 75, MaxPixels: defaultMaxPixels}
}

func (o *Optimiser) Optimise(ctx context.Context, data []byte) ([]byte, error) {
	// the header is cheap to read and says how much memory decoding would take
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > o.MaxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	img = resizeImage(img, o.MaxWidth)

	var buf bytes.Buffer
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, o.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}

	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}

	return buf.Bytes(), nil
}

func resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	// ensure scales down only
	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth

	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}
