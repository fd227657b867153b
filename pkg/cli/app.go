// Package cli implements the skinsmooth command: it decodes images, runs the
// skin smoothing pipeline on them in parallel and writes the results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/skinsmooth/pkg/config"
	"github.com/Fepozopo/skinsmooth/pkg/skin"
)

const usageHeader = `Usage: skinsmooth [flags] <image>...

Smooths skin in portraits with a high-pass mask and a brightening tone curve.
Results are written next to each input (or to --output-dir) as <name><suffix><ext>.

Flags:
`

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	log            *slog.Logger
	finder         *releaseFinder
}

// options are the parsed command line.
type options struct {
	fs *pflag.FlagSet

	configPath  string
	backend     string
	amount      float64
	radius      float64
	sharpness   float64
	toneCurve   string
	outputDir   string
	suffix      string
	stage       string
	quality     int
	workers     int
	preview     bool
	verbose     bool
	version     bool
	checkUpdate bool
	selfUpdate  bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	d := config.Default()
	o := &options{fs: pflag.NewFlagSet("skinsmooth", pflag.ContinueOnError)}
	fs := o.fs
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML preset file")
	fs.StringVar(&o.backend, "backend", d.Backend, "filter backend: std or gift")
	fs.Float64VarP(&o.amount, "amount", "a", d.Amount, "smoothing strength in [0,1]")
	fs.Float64VarP(&o.radius, "radius", "r", d.Radius, "high-pass radius in pixels")
	fs.Float64Var(&o.sharpness, "sharpness", d.SharpnessFactor, "sharpness factor in [0,1]")
	fs.StringVar(&o.toneCurve, "tone-curve", "", `tone curve control points "x,y;x,y;..." (default: built-in curve)`)
	fs.StringVarP(&o.outputDir, "output-dir", "o", d.OutputDir, "directory for results (default: next to each input)")
	fs.StringVar(&o.suffix, "suffix", d.Suffix, "suffix appended to output file names")
	fs.StringVar(&o.stage, "stage", d.Stage, "image to write: output, mask, toned or blended")
	fs.IntVarP(&o.quality, "quality", "q", d.JPEGQuality, "JPEG quality 1..100")
	fs.IntVarP(&o.workers, "workers", "j", d.Workers, "images processed in parallel")
	fs.BoolVarP(&o.preview, "preview", "p", d.Preview, "show results in the terminal")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&o.version, "version", false, "print the version and exit")
	fs.BoolVar(&o.checkUpdate, "check-update", false, "check for a newer release and exit")
	fs.BoolVar(&o.selfUpdate, "self-update", false, "install the newest release and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// config layers defaults, the preset file, .env and environment variables,
// and finally the flags the user set explicitly.
func (o *options) config() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		if err := cfg.LoadFile(o.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}
	set := func(name string, apply func()) {
		if o.fs.Changed(name) {
			apply()
		}
	}
	set("backend", func() { cfg.Backend = o.backend })
	set("amount", func() { cfg.Amount = o.amount })
	set("radius", func() { cfg.Radius = o.radius })
	set("sharpness", func() { cfg.SharpnessFactor = o.sharpness })
	set("output-dir", func() { cfg.OutputDir = o.outputDir })
	set("suffix", func() { cfg.Suffix = o.suffix })
	set("stage", func() { cfg.Stage = o.stage })
	set("quality", func() { cfg.JPEGQuality = o.quality })
	set("workers", func() { cfg.Workers = o.workers })
	set("preview", func() { cfg.Preview = o.preview })
	if o.fs.Changed("tone-curve") {
		pts, err := config.ParseControlPoints(o.toneCurve)
		if err != nil {
			return cfg, fmt.Errorf("--tone-curve: %w", err)
		}
		cfg.ToneCurve = pts
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run executes the command with args (without the program name).
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseArgs(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "skinsmooth %s\n", Version)
		return nil
	}

	debug, _ := strconv.ParseBool(os.Getenv("SKINSMOOTH_DEBUG"))
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    newLogger(stderr, o.verbose || debug),
		finder: newReleaseFinder(),
	}
	skin.SetLogger(a.log)
	defer skin.SetLogger(nil)

	if o.checkUpdate || o.selfUpdate {
		return a.checkForUpdates(ctx, a.finder, o.selfUpdate)
	}

	cfg, err := o.config()
	if err != nil {
		return err
	}
	inputs := o.fs.Args()
	if len(inputs) == 0 {
		o.fs.Usage()
		return errors.New("no input images")
	}
	return a.processBatch(ctx, cfg, inputs)
}

type result struct {
	input, output string
	img           image.Image
}

// processBatch runs every input through its own Filter, at most cfg.Workers
// at a time. The first failure cancels the files not yet started.
func (a *app) processBatch(ctx context.Context, cfg config.Config, inputs []string) error {
	kernels, err := cfg.Kernels()
	if err != nil {
		return err
	}
	results := make([]result, len(inputs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.processFile(cfg, kernels, in)
			if err != nil {
				return err
			}
			results[i] = res
			mu.Lock()
			fmt.Fprintf(a.stdout, "%s -> %s\n", res.input, res.output)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !cfg.Preview {
		return nil
	}
	p := newPreviewer(a.stdout, a.log)
	if !p.Supported() {
		a.log.Warn("terminal preview not supported")
		return nil
	}
	for _, r := range results {
		fmt.Fprintln(a.stdout, r.output)
		if err := p.Show(r.img); err != nil {
			a.log.Warn("preview failed", "file", r.output, "err", err)
		}
	}
	return nil
}

func (a *app) processFile(cfg config.Config, kernels skin.Kernels, input string) (result, error) {
	img, err := LoadImage(input)
	if err != nil {
		return result{}, err
	}
	f := skin.NewFilter(skin.WithKernels(kernels), skin.WithParameters(cfg.Parameters()))
	f.InputImage = img

	out := selectStage(f.Render(), cfg.Stage)
	if out == nil {
		return result{}, fmt.Errorf("no output produced for %s", input)
	}
	path := OutputPath(input, cfg.OutputDir, cfg.Suffix, cfg.Stage)
	if err := SaveImage(out, path, cfg.JPEGQuality); err != nil {
		return result{}, err
	}
	a.log.Debug("processed", "input", input, "output", path, "stage", cfg.Stage)
	return result{input: input, output: path, img: out}, nil
}

// selectStage returns the requested stage image, or nil when it is absent.
func selectStage(st *skin.Stages, stage string) image.Image {
	if st == nil {
		return nil
	}
	switch stage {
	case config.StageMask:
		if st.Mask != nil {
			return st.Mask
		}
	case config.StageToned:
		if st.Toned != nil {
			return st.Toned
		}
	case config.StageBlended:
		if st.Blended != nil {
			return st.Blended
		}
	default:
		if st.Output != nil {
			return st.Output
		}
	}
	return nil
}
