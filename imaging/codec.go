// Package imaging re-encodes user-selected pictures before they enter a
// message: bound the dimensions, recompress, and wrap the result in a
// data URI so the record is self-contained.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	"baatchit/domain"
	"baatchit/domain/mimetypes"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// Default bounds of an encoded attachment.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 600
	DefaultQuality   = 70
)

// Codec shrinks an image to fit maxWidth x maxHeight, keeping the aspect
// ratio, and re-encodes it as JPEG at the configured quality. Images
// already inside the bounds keep their dimensions but are still
// recompressed.
type Codec struct {
	maxWidth  int
	maxHeight int
	quality   int
	log       *slog.Logger
}

func NewCodec(maxWidth, maxHeight, quality int, log *slog.Logger) *Codec {
	return &Codec{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
		log:       log,
	}
}

func (c *Codec) Encode(data []byte, filename string) (domain.Attachment, error) {
	detected := mimetype.Detect(data)
	if !mimetypes.IsImage(detected.String()) {
		return domain.Attachment{}, fmt.Errorf("%s is %s, not an image", filename, detected.String())
	}

	source, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("decode %s: %w", filename, err)
	}

	resized := c.scaleToFit(source)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: c.quality}); err != nil {
		return domain.Attachment{}, fmt.Errorf("encode %s: %w", filename, err)
	}

	c.log.Debug("Encoded attachment",
		"filename", filename, "inBytes", len(data), "outBytes", buf.Len())

	return domain.Attachment{
		EncodedImageData: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Filename:         filename,
		SizeBytes:        buf.Len(),
		MimeType:         "image/jpeg",
	}, nil
}

// scaleToFit shrinks source so both dimensions fit the bounds. It never
// upscales.
func (c *Codec) scaleToFit(source image.Image) image.Image {
	bounds := source.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= c.maxWidth && height <= c.maxHeight {
		return source
	}

	ratio := float64(c.maxWidth) / float64(width)
	if r := float64(c.maxHeight) / float64(height); r < ratio {
		ratio = r
	}
	targetWidth := int(float64(width) * ratio)
	targetHeight := int(float64(height) * ratio)
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	target := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(target, target.Bounds(), source, bounds, draw.Over, nil)
	return target
}
