// Package skin implements high-pass skin smoothing.
//
// The input is brightened through a tone curve and blended back with the
// original under a high-pass detail mask: flat areas take the toned image,
// textured areas keep the original. The blend is then sharpened on its
// luminance by Amount * SharpnessFactor when that product is positive.
//
//	f := skin.NewFilter()
//	f.InputImage = img
//	f.Amount = 0.6
//	out := f.Output() // nil when there is nothing to compute
package skin

import (
	"errors"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/skinsmooth/pkg/stdimg"
)

var (
	errNoMask  = errors.New("mask generator produced no image")
	errNoToned = errors.New("tone curve produced no image")
)

// Stages holds every intermediate image of one render. A nil field means
// that stage, and everything after it, produced nothing.
type Stages struct {
	Mask            *image.Gray
	Toned           *image.NRGBA
	Blended         *image.NRGBA
	Output          *image.NRGBA
	SharpenStrength float64
}

// Filter is the smoothing compositor. The zero value is not usable; create
// one with NewFilter. A Filter keeps no derived state between renders, so
// changing fields between calls is always observed by the next call. It is
// not safe to mutate a Filter while it renders.
type Filter struct {
	// InputImage is the image to smooth. nil, or a nil pointer of a concrete
	// image type, means nothing to compute. Every stage keeps its bounds.
	InputImage image.Image
	Parameters

	kernels Kernels
	masks   MaskGenerator
	tones   ToneCurveAdjuster
}

// Option configures a Filter at construction.
type Option func(*Filter)

// WithKernels selects the primitive filters. nil keeps the default StdKernels.
func WithKernels(k Kernels) Option {
	return func(f *Filter) {
		if k != nil {
			f.kernels = k
		}
	}
}

// WithParameters sets the initial parameters.
func WithParameters(p Parameters) Option {
	return func(f *Filter) {
		f.Parameters = p
	}
}

// NewFilter returns a Filter with default parameters and no input.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		Parameters: DefaultParameters(),
		kernels:    StdKernels{SharpenRadius: stdimg.DefaultSharpenRadius},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.masks = MaskGenerator{Kernels: f.kernels}
	f.tones = ToneCurveAdjuster{Kernels: f.kernels}
	return f
}

// SetDefaults restores every parameter to its default and clears the input.
func (f *Filter) SetDefaults() {
	f.InputImage = nil
	f.Parameters = DefaultParameters()
}

// Output renders the filter and returns the final image, or nil when there
// is no input or a stage failed.
func (f *Filter) Output() image.Image {
	st := f.Render()
	if st == nil || st.Output == nil {
		return nil
	}
	return st.Output
}

// Render runs the pipeline and returns all stages, or nil when InputImage is
// nil. The mask and the toned image are computed concurrently.
func (f *Filter) Render() *Stages {
	if stdimg.IsNilImage(f.InputImage) {
		Logger().Debug("skin: no input image")
		return nil
	}
	src := stdimg.ToNRGBA(f.InputImage)
	p := f.Parameters.resolved()
	st := &Stages{SharpenStrength: p.SharpenStrength()}
	log := Logger().With("width", src.Rect.Dx(), "height", src.Rect.Dy())

	var g errgroup.Group
	g.Go(func() error {
		st.Mask = f.masks.Generate(src, p.Radius)
		if st.Mask == nil {
			return errNoMask
		}
		return nil
	})
	g.Go(func() error {
		st.Toned = f.tones.Apply(src, p.ToneCurveControlPoints, p.Amount)
		if st.Toned == nil {
			return errNoToned
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn("skin: render aborted", "err", err)
		return st
	}

	st.Blended = f.kernels.Blend(st.Toned, src, st.Mask)
	if st.Blended == nil {
		log.Warn("skin: render aborted", "err", "blend produced no image")
		return st
	}

	if st.SharpenStrength > 0 {
		st.Output = f.kernels.SharpenLuminance(st.Blended, st.SharpenStrength)
		if st.Output == nil {
			log.Warn("skin: render aborted", "err", "sharpen produced no image")
			return st
		}
	} else {
		st.Output = st.Blended
	}
	log.Debug("skin: rendered",
		"amount", p.Amount,
		"radius", p.Radius,
		"points", len(p.ToneCurveControlPoints),
		"sharpen", st.SharpenStrength)
	return st
}
