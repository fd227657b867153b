package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/image/draw"
)

// Terminal preview of a processed image.
//
// Backends, in detection order:
//   - iTerm2-style inline images (OSC 1337), used by iTerm2, WezTerm, Warp, VSCode and others
//   - the kitty graphics protocol (kitty, ghostty, Konsole)
//   - chafa on PATH, rendering block symbols for any other terminal
//
// PREVIEW_BACKEND=inline|kitty|chafa forces a backend; detection is still
// used as a fallback when the forced one fails.

var errNoPreviewBackend = errors.New("no terminal preview backend available")

// previewer writes previews to out. Detection reads the environment through
// getenv so tests can pin a terminal.
type previewer struct {
	out    io.Writer
	log    *slog.Logger
	getenv func(string) string
}

func newPreviewer(out io.Writer, log *slog.Logger) *previewer {
	return &previewer{out: out, log: log, getenv: os.Getenv}
}

func (p *previewer) isKitty() bool {
	if p.getenv("KITTY_WINDOW_ID") != "" || p.getenv("KONSOLE_VERSION") != "" {
		return true
	}
	term := strings.ToLower(p.getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

func (p *previewer) isInline() bool {
	switch p.getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby", "Bobcat":
		return true
	}
	if p.getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(p.getenv("TERM"))
	return strings.Contains(term, "wezterm") || strings.Contains(term, "tabby")
}

func (p *previewer) hasChafa() bool {
	if p.getenv("NO_CHAFA") == "1" {
		return false
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// Supported reports whether any backend is likely to work.
func (p *previewer) Supported() bool {
	return p.isInline() || p.isKitty() || p.hasChafa()
}

// Show downscales img to the preview size and sends it as PNG.
func (p *previewer) Show(img image.Image) error {
	if img == nil {
		return errors.New("preview: nil image")
	}
	size := computePreviewSize(img.Bounds().Dx(), img.Bounds().Dy())
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaleToFit(img, size.PixelWidth, size.PixelHeight)); err != nil {
		return fmt.Errorf("preview: encode png: %w", err)
	}
	return p.send(buf.Bytes(), size)
}

func (p *previewer) send(blob []byte, size PreviewSize) error {
	backends := map[string]func([]byte, PreviewSize) error{
		"inline": p.sendInline,
		"kitty":  p.sendKitty,
		"chafa":  p.sendChafa,
	}
	if forced := strings.ToLower(p.getenv("PREVIEW_BACKEND")); forced != "" {
		if fn, ok := backends[forced]; ok {
			err := fn(blob, size)
			if err == nil {
				return nil
			}
			p.log.Debug("preview: forced backend failed", "backend", forced, "err", err)
		} else {
			p.log.Debug("preview: unknown PREVIEW_BACKEND", "value", forced)
		}
	}

	var tried []error
	if p.isInline() {
		if err := p.sendInline(blob, size); err == nil {
			return nil
		} else {
			tried = append(tried, err)
		}
	}
	if p.isKitty() {
		if err := p.sendKitty(blob, size); err == nil {
			return nil
		} else {
			tried = append(tried, err)
		}
	}
	if p.hasChafa() {
		if err := p.sendChafa(blob, size); err == nil {
			return nil
		} else {
			tried = append(tried, err)
		}
	}
	if len(tried) == 0 {
		return errNoPreviewBackend
	}
	return fmt.Errorf("preview: %w", errors.Join(tried...))
}

// PreviewSize is a placement in terminal cells plus its approximate pixel size.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize fits a w x h image into at most 80x40 cells of 8x16
// pixels, preserving the aspect ratio and never scaling up.
func computePreviewSize(w, h int) PreviewSize {
	const (
		charW, charH     = 8, 16
		minCols, minRows = 6, 3
		maxCols, maxRows = 80, 40
	)
	if w <= 0 || h <= 0 {
		return PreviewSize{Cols: minCols, Rows: minRows, PixelWidth: minCols * charW, PixelHeight: minRows * charH}
	}
	scale := math.Min(1, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))
	cols := clampInt(int(math.Round(float64(w)*scale/charW)), minCols, maxCols)
	rows := clampInt(int(math.Round(float64(h)*scale/charH)), minRows, maxRows)
	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

// scaleToFit returns img resampled with Catmull-Rom to fit in maxW x maxH.
// Images already small enough are returned as is.
func scaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	scale := math.Min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// trailingNewlines keeps the next output line clear of the image.
func trailingNewlines(rows int) int {
	switch {
	case rows <= 0:
		return 1
	case rows <= 2:
		return 1
	case rows <= 6:
		return 2
	case rows <= 20:
		return 3
	}
	return 4
}

func (p *previewer) sendInline(blob []byte, size PreviewSize) error {
	p.log.Debug("preview: inline", "bytes", len(blob))
	seq := fmt.Sprintf("\x1b]1337;File=name=preview.png;inline=1;size=%d;width=%dpx;height=%dpx:%s\a",
		len(blob), size.PixelWidth, size.PixelHeight, base64.StdEncoding.EncodeToString(blob))
	if _, err := io.WriteString(p.out, seq); err != nil {
		return err
	}
	_, err := io.WriteString(p.out, strings.Repeat("\n", trailingNewlines(0)))
	return err
}

// sendKitty transmits the PNG in base64 chunks of at most 4096 bytes. The
// first chunk carries the placement; q=2 suppresses terminal replies.
func (p *previewer) sendKitty(blob []byte, size PreviewSize) error {
	p.log.Debug("preview: kitty", "bytes", len(blob), "cols", size.Cols, "rows", size.Rows)
	const chunkSize = 4096
	enc := base64.StdEncoding.EncodeToString(blob)
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := 0
		if end < len(enc) {
			more = 1
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%d;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			seq = fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", more, enc[pos:end])
		}
		if _, err := io.WriteString(p.out, seq); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.out, strings.Repeat("\n", trailingNewlines(size.Rows)))
	return err
}

func (p *previewer) sendChafa(blob []byte, size PreviewSize) error {
	if !p.hasChafa() {
		return errors.New("chafa not available")
	}
	args := []string{"--fill=block", "--symbols=block", "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-"}
	if f := p.getenv("CHAFA_SYMBOLS"); f != "" {
		args[1] = "--symbols=" + f
	}
	p.log.Debug("preview: chafa", "args", args)
	cmd := exec.Command("chafa", args...)
	cmd.Stdin = bytes.NewReader(blob)
	cmd.Stdout = p.out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	_, err := io.WriteString(p.out, strings.Repeat("\n", trailingNewlines(size.Rows)))
	return err
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
