package converters

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/bmp"
)

// Encoder quality per target format.
const (
	jpegQuality = 95
	webpQuality = 95
	avifQuality = 90
	avifSpeed   = 8
)

// flattenedFormats cannot carry a full alpha channel; transparent areas are
// composited over white before encoding.
var flattenedFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
	"gif":  true,
}

// ConvertImage re-encodes the image at inputPath into format at outputPath.
func ConvertImage(inputPath, outputPath, format string) error {
	img, err := decodeImage(inputPath)
	if err != nil {
		return err
	}
	if flattenedFormats[format] {
		img = flattenOnWhite(img)
	}
	return writeImage(outputPath, img, format)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// flattenOnWhite returns an opaque RGBA copy of img with transparency filled white.
func flattenOnWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func writeImage(path string, img image.Image, format string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return encodeImage(out, img, format)
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	case "bmp":
		return bmp.Encode(w, img)
	case "webp":
		return webp.Encode(w, img, webp.Options{Quality: webpQuality})
	case "avif":
		return avif.Encode(w, img, avif.Options{Quality: avifQuality, QualityAlpha: avifQuality, Speed: avifSpeed})
	default:
		return fmt.Errorf("no encoder for %q", format)
	}
}

// colorModelName describes a color model the way image tools usually report it.
func colorModelName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "YCbCr"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "unknown"
}
