package extract

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gridsync/internal/apperr"
	"gridsync/internal/inference"
)

// LoadImage checks that data decodes as a raster image and tags it with its
// MIME type. The bytes are forwarded unchanged.
func LoadImage(data []byte) (inference.Image, error) {
	if len(data) == 0 {
		return inference.Image{}, apperr.ErrInput("no image uploaded")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return inference.Image{}, apperr.ErrInput("unsupported image: %v", err)
	}
	return inference.Image{MIMEType: "image/" + format, Data: data}, nil
}
