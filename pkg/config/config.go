// Package config resolves skinsmooth settings from, in increasing priority,
// built-in defaults, a YAML preset, .env files and SKINSMOOTH_* environment
// variables, and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Fepozopo/skinsmooth/pkg/skin"
	"github.com/Fepozopo/skinsmooth/pkg/stdimg"
)

// Stage names select which pipeline image the CLI writes.
const (
	StageOutput  = "output"
	StageMask    = "mask"
	StageToned   = "toned"
	StageBlended = "blended"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "SKINSMOOTH_"

// Config is the full set of user settings.
type Config struct {
	Backend         string              `yaml:"backend"`
	Amount          float64             `yaml:"amount"`
	Radius          float64             `yaml:"radius"`
	SharpnessFactor float64             `yaml:"sharpness_factor"`
	ToneCurve       []skin.ControlPoint `yaml:"tone_curve"`
	SharpenRadius   float64             `yaml:"sharpen_radius"`
	JPEGQuality     int                 `yaml:"jpeg_quality"`
	Workers         int                 `yaml:"workers"`
	Stage           string              `yaml:"stage"`
	OutputDir       string              `yaml:"output_dir"`
	Suffix          string              `yaml:"suffix"`
	Preview         bool                `yaml:"preview"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backend:         skin.BackendStd,
		Amount:          skin.DefaultAmount,
		Radius:          skin.DefaultRadius,
		SharpnessFactor: skin.DefaultSharpnessFactor,
		ToneCurve:       skin.DefaultToneCurveControlPoints(),
		SharpenRadius:   stdimg.DefaultSharpenRadius,
		JPEGQuality:     95,
		Workers:         4,
		Stage:           StageOutput,
		Suffix:          "_smooth",
	}
}

// LoadFile overlays the YAML preset at path onto c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := c.decodeYAML(bytes.NewReader(b)); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadEnv loads the given .env files (".env" when none are named) into the
// process environment, then overlays every SKINSMOOTH_* variable onto c.
// Missing .env files are ignored; variables already set in the environment
// win over .env values.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"AMOUNT", &c.Amount},
		{"RADIUS", &c.Radius},
		{"SHARPNESS", &c.SharpnessFactor},
		{"SHARPEN_RADIUS", &c.SharpenRadius},
	}
	for _, f := range floats {
		if v, ok := get(f.name); ok {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, f.name, err)
			}
			*f.dst = x
		}
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"QUALITY", &c.JPEGQuality},
		{"WORKERS", &c.Workers},
	}
	for _, f := range ints {
		if v, ok := get(f.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, f.name, err)
			}
			*f.dst = n
		}
	}
	if v, ok := get("BACKEND"); ok {
		c.Backend = v
	}
	if v, ok := get("STAGE"); ok {
		c.Stage = v
	}
	if v, ok := get("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := get("SUFFIX"); ok {
		c.Suffix = v
	}
	if v, ok := get("TONE_CURVE"); ok {
		pts, err := ParseControlPoints(v)
		if err != nil {
			return fmt.Errorf("%sTONE_CURVE: %w", EnvPrefix, err)
		}
		c.ToneCurve = pts
	}
	if v, ok := get("PREVIEW"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPREVIEW: %w", EnvPrefix, err)
		}
		c.Preview = b
	}
	return nil
}

// ParseControlPoints parses "x,y;x,y;..." into control points. Whitespace
// is ignored and an empty string yields an empty (default) curve.
func ParseControlPoints(s string) ([]skin.ControlPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pts []skin.ControlPoint
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("control point %q: want x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("control point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("control point %q: %w", pair, err)
		}
		pts = append(pts, skin.ControlPoint{X: x, Y: y})
	}
	return pts, nil
}

// FormatControlPoints is the inverse of ParseControlPoints.
func FormatControlPoints(pts []skin.ControlPoint) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch {
	case !inUnit(c.Amount):
		return fmt.Errorf("amount %v: must be within [0,1]", c.Amount)
	case !(c.Radius > 0):
		return fmt.Errorf("radius %v: must be positive", c.Radius)
	case !inUnit(c.SharpnessFactor):
		return fmt.Errorf("sharpness_factor %v: must be within [0,1]", c.SharpnessFactor)
	case c.SharpenRadius < 0:
		return fmt.Errorf("sharpen_radius %v: must not be negative", c.SharpenRadius)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("jpeg_quality %d: must be within 1..100", c.JPEGQuality)
	case c.Workers < 1:
		return fmt.Errorf("workers %d: must be at least 1", c.Workers)
	}
	for i, p := range c.ToneCurve {
		if !inUnit(p.X) || !inUnit(p.Y) {
			return fmt.Errorf("tone_curve[%d] (%v,%v): coordinates must be within [0,1]", i, p.X, p.Y)
		}
	}
	switch c.Stage {
	case StageOutput, StageMask, StageToned, StageBlended:
	default:
		return fmt.Errorf("stage %q: want one of %s, %s, %s, %s", c.Stage, StageOutput, StageMask, StageToned, StageBlended)
	}
	if _, err := c.Kernels(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	return nil
}

// Parameters returns the pipeline parameters described by c.
func (c Config) Parameters() skin.Parameters {
	return skin.Parameters{
		Amount:                 c.Amount,
		Radius:                 c.Radius,
		ToneCurveControlPoints: append([]skin.ControlPoint(nil), c.ToneCurve...),
		SharpnessFactor:        c.SharpnessFactor,
	}
}

// Kernels returns the primitive filter backend named by c.Backend.
func (c Config) Kernels() (skin.Kernels, error) {
	return skin.KernelsByName(c.Backend, c.SharpenRadius)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
