package cli

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Fepozopo/skinsmooth/pkg/config"
)

// LoadImage decodes the image at path, applying its EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img to path in the format implied by its extension.
// quality applies to JPEG output. Parent directories are created.
func SaveImage(img image.Image, path string, quality int) error {
	if img == nil {
		return errors.New("save: nil image")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// OutputPath names the result for input: <dir>/<name><suffix>[_<stage>]<ext>.
// dir defaults to the input's directory. Extensions that cannot be encoded
// (webp, for example) are replaced by .png.
func OutputPath(input, dir, suffix, stage string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext)
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = ".png"
	}
	if stage != "" && stage != config.StageOutput {
		suffix += "_" + stage
	}
	return filepath.Join(dir, name+suffix+ext)
}
