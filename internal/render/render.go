// Package render turns reconstructed grid states into images and videos.
// Still frames and video muxing are delegated to an external ffmpeg binary;
// heatmaps are encoded directly as grayscale PNGs.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/grid"
)

// Renderer is the capability the replay driver emits frames through. The
// driver only supplies buffers and paths; any renderer failure is fatal to
// the run.
type Renderer interface {
	// StillImage encodes one bit-packed grid state as an image at outPath.
	StillImage(state grid.State, outPath string) error
	// HeatmapImage encodes change counters as a grayscale intensity image,
	// applying logOrder rounds of logarithmic compression.
	HeatmapImage(counters grid.Counters, logOrder int, outPath string) error
	// Video assembles the ordered img-*.png frames in frameDir into a video.
	Video(frameDir, outPath string, framerate int) error
}

// ToolError reports an external tool that is unavailable or exited non-zero,
// carrying the tool's own diagnostics.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// FFmpeg renders through an external ffmpeg binary.
type FFmpeg struct {
	binary string
}

// NewFFmpeg returns a renderer using the given ffmpeg binary; an empty
// binary means "ffmpeg" from PATH.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// Check verifies that ffmpeg exists and runs. Called up front so a missing
// tool fails the run before any replay work happens.
func (f *FFmpeg) Check() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return &ToolError{Tool: f.binary, Err: fmt.Errorf("not found in PATH: %w", err)}
	}
	cmd := exec.Command(f.binary, "-version")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: f.binary, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// StillImage pipes the raw bit-packed state into ffmpeg as a single monob
// frame. The MSB-first packing of grid.State is exactly what monob expects.
func (f *FFmpeg) StillImage(state grid.State, outPath string) error {
	cmd := exec.Command(f.binary,
		"-f", "rawvideo",
		"-pix_fmt", "monob",
		"-video_size", fmt.Sprintf("%dx%d", grid.Width, grid.Height),
		"-i", "-",
		"-y", outPath)
	cmd.Stdin = bytes.NewReader(state)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: f.binary, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// Video assembles the frame sequence in frameDir into an H.264 video.
func (f *FFmpeg) Video(frameDir, outPath string, framerate int) error {
	cmd := exec.Command(f.binary,
		"-framerate", fmt.Sprintf("%d", framerate),
		"-pattern_type", "glob",
		"-i", frameDir+"/img-*.png",
		"-pix_fmt", "gray",
		"-video_size", fmt.Sprintf("%dx%d", grid.Width, grid.Height),
		"-c:v", "libx264",
		"-y", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: f.binary, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// HeatmapImage writes counters as a 1000x1000 grayscale PNG. Intensity is
// the counter normalized against the maximum, optionally compressed.
func (f *FFmpeg) HeatmapImage(counters grid.Counters, logOrder int, outPath string) error {
	img := HeatmapGray(counters, logOrder)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create heatmap: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode heatmap: %w", err)
	}
	return nil
}

// HeatmapGray builds the grayscale heatmap image from change counters.
func HeatmapGray(counters grid.Counters, logOrder int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, grid.Width, grid.Height))
	max := counters.Max()
	if max == 0 {
		return img
	}
	for i, v := range counters {
		img.Pix[i] = uint8(LogScale(float64(v)/float64(max), logOrder) * 255)
	}
	return img
}

// LogScale applies order rounds of logarithmic compression to an intensity
// in [0,1], keeping the result in [0,1]. Order zero is linear.
func LogScale(v float64, order int) float64 {
	for i := 0; i < order; i++ {
		v = math.Log10(v*0.9+0.1) + 1
	}
	return v
}
