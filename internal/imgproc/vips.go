package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"image-browser/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library. Call once at startup; the filter
// context is created once and reused for throughput.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips logs through our logger, suppressing chatter below the
	// configured level.
	var vipsLogLevel vips.LogLevel
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	} else {
		vipsLogLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,                // one image at a time to control memory
		MaxCacheMem:      50 * 1024 * 1024, // 50MB operation cache
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// SharpenParams holds the edge-enhancement filter parameters.
type SharpenParams struct {
	// Sigma is the radius of the unsharp mask.
	Sigma float64
	// X1 is the flat/jaggy threshold (vips only).
	X1 float64
	// M2 is the slope above the threshold (vips only).
	M2 float64
}

// DefaultSharpenParams returns a mild edge enhancement suited to downscaled
// photos.
func DefaultSharpenParams() SharpenParams {
	return SharpenParams{Sigma: 0.5, X1: 2.0, M2: 3.0}
}

// VipsProcessor prepares full images through libvips with decode-time
// shrinking.
type VipsProcessor struct {
	Sharpen SharpenParams
}

// Prepare loads, resizes, and sharpens the image at path.
func (p *VipsProcessor) Prepare(path string, targetWidth, targetHeight int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	origWidth := ref.Width()
	origHeight := ref.Height()

	// Downscale only when the source exceeds the target box; never upscale.
	if targetWidth > 0 && targetHeight > 0 && (origWidth > targetWidth || origHeight > targetHeight) {
		logging.Debug("vips shrinking %s: %dx%d -> fit %dx%d",
			filepath.Base(path), origWidth, origHeight, targetWidth, targetHeight)
		if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	if err := ref.Sharpen(p.Sharpen.Sigma, p.Sharpen.X1, p.Sharpen.M2); err != nil {
		// Degrade to the unsharpened-but-resized image.
		logging.Warn("vips sharpen failed for %s, using unsharpened image: %v", filepath.Base(path), err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	return img, nil
}

// CPUProcessor is the pure-Go fallback used when libvips is unavailable.
type CPUProcessor struct {
	Sharpen SharpenParams
}

// Prepare loads, resizes, and sharpens the image at path.
func (p *CPUProcessor) Prepare(path string, targetWidth, targetHeight int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	if targetWidth > 0 && targetHeight > 0 && (bounds.Dx() > targetWidth || bounds.Dy() > targetHeight) {
		img = imaging.Fit(img, targetWidth, targetHeight, imaging.Lanczos)
	}

	if p.Sharpen.Sigma > 0 {
		img = imaging.Sharpen(img, p.Sharpen.Sigma)
	}

	return img, nil
}

// NewProcessor returns the vips-backed processor when libvips is initialized,
// otherwise the CPU fallback.
func NewProcessor(params SharpenParams) Processor {
	if IsVipsAvailable() {
		return &VipsProcessor{Sharpen: params}
	}
	logging.Info("using CPU image processor (libvips not initialized)")
	return &CPUProcessor{Sharpen: params}
}
