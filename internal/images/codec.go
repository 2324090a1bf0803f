package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	DefaultMaxWidth = 1200
	DefaultQuality  = 80
)

type Options struct {
	MaxWidth int
	Quality  int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Shrink decodes a JPEG or PNG, caps its width at opts.MaxWidth keeping
// the aspect ratio (never upscaling), and re-encodes it as JPEG at
// opts.Quality. The source slice is left untouched.
func Shrink(src []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > opts.MaxWidth {
		scaled := opts.MaxWidth
		height = height * scaled / width
		if height < 1 {
			height = 1
		}
		width = scaled

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return out.Bytes(), nil
}
