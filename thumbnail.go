package folio

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

const (
	thumbMaxSide     = 320
	thumbJPEGQuality = 85
)

// thumbMaxPixels caps the decoded size of a thumbnail source.
var thumbMaxPixels = 50_000_000

// writeThumbnail decodes the image at srcPath and writes a copy whose longest
// side is at most thumbMaxSide to dstPath. The output format follows the
// destination extension; names imaging cannot encode (.webp) and sources above
// thumbMaxPixels get no thumbnail. Nothing is left at dstPath on failure.
func writeThumbnail(srcPath, dstPath string) error {
	format, err := imaging.FormatFromFilename(dstPath)
	if err != nil {
		return eris.Errorf("no thumbnail encoder for %q", filepath.Ext(dstPath))
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return eris.Wrap(err, "open source")
	}
	defer in.Close()

	cfg, _, err := image.DecodeConfig(in)
	if err != nil {
		return eris.Wrap(err, "decode image config")
	}
	if cfg.Width*cfg.Height > thumbMaxPixels {
		return eris.Errorf("image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, thumbMaxPixels)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return eris.Wrap(err, "rewind source")
	}

	img, err := imaging.Decode(in, imaging.AutoOrientation(true))
	if err != nil {
		return eris.Wrap(err, "decode image")
	}
	thumb := fitThumbnail(img, thumbMaxSide)

	out, err := os.Create(dstPath)
	if err != nil {
		return eris.Wrap(err, "create thumbnail")
	}
	if err := imaging.Encode(out, thumb, format, imaging.JPEGQuality(thumbJPEGQuality)); err != nil {
		out.Close()
		_ = os.Remove(dstPath)
		return eris.Wrap(err, "encode thumbnail")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dstPath)
		return eris.Wrap(err, "close thumbnail")
	}
	return nil
}

// fitThumbnail scales src to fit inside a maxSide square, keeping the aspect
// ratio and never upscaling. Sources with transparency are flattened onto white.
func fitThumbnail(src image.Image, maxSide int) *image.RGBA {
	b := src.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if !isOpaque(src) {
		draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func fitSize(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return maxSide, max(1, (h*maxSide+w/2)/w)
	}
	return max(1, (w*maxSide+h/2)/h), maxSide
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
