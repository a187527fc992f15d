package imgproc

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeTestImage encodes a solid-color image of the given size to path.
func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestStdProber(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name          string
		file          string
		width, height int
	}{
		{"png", "a.png", 64, 48},
		{"jpeg", "b.jpg", 120, 80},
	}

	var prober StdProber
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeTestImage(t, path, tt.width, tt.height)

			w, h, err := prober.Probe(path)
			if err != nil {
				t.Fatalf("Probe() error: %v", err)
			}
			if w != tt.width || h != tt.height {
				t.Errorf("Probe() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestStdProberErrors(t *testing.T) {
	dir := t.TempDir()
	var prober StdProber

	if _, _, err := prober.Probe(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("Probe() on missing file: want error")
	}

	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := prober.Probe(garbage); err == nil {
		t.Error("Probe() on garbage file: want error")
	}
}

func TestImagingDecoder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.jpg")
	writeTestImage(t, path, 32, 24)

	var dec ImagingDecoder
	img, err := dec.Decode(path)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("decoded bounds = %v, want 32x24", img.Bounds())
	}
}

func TestCPUProcessorPrepare(t *testing.T) {
	dir := t.TempDir()
	proc := &CPUProcessor{Sharpen: DefaultSharpenParams()}

	tests := []struct {
		name           string
		srcW, srcH     int
		targetW, targetH int
		wantW, wantH   int
	}{
		{"downscale landscape", 800, 400, 200, 200, 200, 100},
		{"no upscale", 50, 40, 200, 200, 50, 40},
		{"no target means no resize", 300, 200, 0, 0, 300, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".jpg")
			writeTestImage(t, path, tt.srcW, tt.srcH)

			img, err := proc.Prepare(path, tt.targetW, tt.targetH)
			if err != nil {
				t.Fatalf("Prepare() error: %v", err)
			}
			if img.Bounds().Dx() != tt.wantW || img.Bounds().Dy() != tt.wantH {
				t.Errorf("Prepare() = %dx%d, want %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCPUProcessorMissingFile(t *testing.T) {
	proc := &CPUProcessor{}
	if _, err := proc.Prepare(filepath.Join(t.TempDir(), "gone.jpg"), 100, 100); err == nil {
		t.Error("Prepare() on missing file: want error")
	}
}

func TestNewProcessorFallsBackWithoutVips(t *testing.T) {
	if IsVipsAvailable() {
		t.Skip("vips initialized in this process")
	}
	if _, ok := NewProcessor(DefaultSharpenParams()).(*CPUProcessor); !ok {
		t.Error("NewProcessor() without vips: want *CPUProcessor")
	}
}
