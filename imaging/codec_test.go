package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	payload, found := strings.CutPrefix(uri, "data:image/jpeg;base64,")
	require.True(t, found)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestCodec_DownscalesLargeImage(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(DefaultMaxWidth, DefaultMaxHeight, DefaultQuality, slog.Default())

	attachment, err := codec.Encode(pngBytes(t, 1600, 1200), "big.png")
	req.NoError(err)
	req.Equal("big.png", attachment.Filename)
	req.Equal("image/jpeg", attachment.MimeType)
	req.Positive(attachment.SizeBytes)

	img := decodeDataURI(t, attachment.EncodedImageData)
	req.Equal(800, img.Bounds().Dx())
	req.Equal(600, img.Bounds().Dy())
}

func TestCodec_KeepsAspectRatio(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(DefaultMaxWidth, DefaultMaxHeight, DefaultQuality, slog.Default())

	// Tall portrait: height is the binding constraint
	attachment, err := codec.Encode(pngBytes(t, 900, 1800), "portrait.png")
	req.NoError(err)

	img := decodeDataURI(t, attachment.EncodedImageData)
	req.Equal(600, img.Bounds().Dy())
	req.Equal(300, img.Bounds().Dx())
}

func TestCodec_NeverUpscales(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(DefaultMaxWidth, DefaultMaxHeight, DefaultQuality, slog.Default())

	attachment, err := codec.Encode(pngBytes(t, 120, 80), "small.png")
	req.NoError(err)

	img := decodeDataURI(t, attachment.EncodedImageData)
	req.Equal(120, img.Bounds().Dx())
	req.Equal(80, img.Bounds().Dy())
}

func TestCodec_RejectsNonImage(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(DefaultMaxWidth, DefaultMaxHeight, DefaultQuality, slog.Default())

	_, err := codec.Encode([]byte("just some text, definitely not pixels"), "note.txt")
	req.Error(err)
}

func TestCodec_RejectsTruncatedImage(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(DefaultMaxWidth, DefaultMaxHeight, DefaultQuality, slog.Default())

	valid := pngBytes(t, 100, 100)
	_, err := codec.Encode(valid[:40], "broken.png")
	req.Error(err)
}
