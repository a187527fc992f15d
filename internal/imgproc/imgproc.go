package imgproc

import (
	"image"
	"os"

	"image-browser/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// Prober reads image pixel dimensions without a full decode.
type Prober interface {
	Probe(path string) (width, height int, err error)
}

// Decoder fully decodes an image file.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Processor decodes a file, downscales it to fit within the target box when
// the source is larger, and applies a sharpening pass. A zero target box
// means no resize. Sharpen failure is non-fatal; the resized image is
// returned unsharpened.
type Processor interface {
	Prepare(path string, targetWidth, targetHeight int) (image.Image, error)
}

// StdProber probes dimensions via image.DecodeConfig, which reads only the
// file header.
type StdProber struct{}

// Probe returns the natural pixel dimensions of the image at path.
func (StdProber) Probe(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}

// ImagingDecoder decodes with auto-orientation, honoring EXIF rotation.
type ImagingDecoder struct{}

// Decode fully decodes the image at path.
func (ImagingDecoder) Decode(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}
