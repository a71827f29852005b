package embedding

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// prepareImage downscales images whose longer side exceeds maxSize and
// re-encodes them as JPEG. It returns the bytes to upload and the factor that
// maps coordinates on the uploaded image back to the original. Data that
// cannot be decoded is returned unchanged so the server can judge it.
func prepareImage(data []byte, maxSize, quality int) ([]byte, float64) {
	if maxSize <= 0 {
		return data, 1
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, 1
	}
	longest := max(cfg.Width, cfg.Height)
	if longest <= maxSize {
		return data, 1
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, 1
	}

	ratio := float64(maxSize) / float64(longest)
	width := max(int(float64(cfg.Width)*ratio), 1)
	height := max(int(float64(cfg.Height)*ratio), 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return data, 1
	}
	return buf.Bytes(), float64(cfg.Width) / float64(width)
}
