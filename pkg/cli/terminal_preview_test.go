package cli

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPreviewer(out io.Writer, env map[string]string) *previewer {
	p := newPreviewer(out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.getenv = func(k string) string { return env[k] }
	return p
}

func tinyImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{255, 255, 0, 255})
	return img
}

func TestPreviewInlineSequence(t *testing.T) {
	var buf bytes.Buffer
	p := testPreviewer(&buf, map[string]string{"TERM_PROGRAM": "WezTerm", "TERM": "xterm-256color"})
	require.True(t, p.Supported())
	require.NoError(t, p.Show(tinyImage()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\x1b]1337;File=name=preview.png;inline=1;"), "got %q", out)

	// payload sits between ':' and BEL and must be a PNG
	payload := out[strings.Index(out, ":")+1 : strings.Index(out, "\a")]
	dec, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(dec))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
}

func TestPreviewKittyChunks(t *testing.T) {
	var buf bytes.Buffer
	p := testPreviewer(&buf, map[string]string{"TERM": "xterm-kitty"})

	blob := bytes.Repeat([]byte{0xAB}, 5000) // > one 4096 base64 chunk
	require.NoError(t, p.send(blob, PreviewSize{Cols: 10, Rows: 5}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\x1b_Ga=T,f=100,t=d,q=2,c=10,r=5,m=1;"))
	require.Contains(t, out, "\x1b_Gm=0;")
	require.Equal(t, 2, strings.Count(out, "\x1b_G"))
}

func TestPreviewForcedBackend(t *testing.T) {
	var buf bytes.Buffer
	p := testPreviewer(&buf, map[string]string{"PREVIEW_BACKEND": "kitty", "TERM_PROGRAM": "WezTerm"})
	require.NoError(t, p.Show(tinyImage()))
	require.True(t, strings.HasPrefix(buf.String(), "\x1b_G"))
}

func TestPreviewWithoutBackend(t *testing.T) {
	p := testPreviewer(io.Discard, map[string]string{"TERM": "dumb", "NO_CHAFA": "1"})
	require.False(t, p.Supported())
	require.ErrorIs(t, p.Show(tinyImage()), errNoPreviewBackend)
	require.Error(t, p.Show(nil))
}

func TestComputePreviewSize(t *testing.T) {
	tests := []struct {
		w, h int
		want PreviewSize
	}{
		{w: 2, h: 2, want: PreviewSize{Cols: 6, Rows: 3, PixelWidth: 48, PixelHeight: 48}},
		{w: 640, h: 640, want: PreviewSize{Cols: 80, Rows: 40, PixelWidth: 640, PixelHeight: 640}},
		{w: 4000, h: 2000, want: PreviewSize{Cols: 80, Rows: 20, PixelWidth: 640, PixelHeight: 320}},
		{w: 0, h: 10, want: PreviewSize{Cols: 6, Rows: 3, PixelWidth: 48, PixelHeight: 48}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, computePreviewSize(tt.w, tt.h), "%dx%d", tt.w, tt.h)
	}
}

func TestScaleToFit(t *testing.T) {
	big := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	got := scaleToFit(big, 100, 100)
	require.Equal(t, image.Rect(0, 0, 100, 25), got.Bounds())

	small := tinyImage()
	require.Same(t, small, scaleToFit(small, 10, 10))
}
