package endorse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/execabs"

	"github.com/verdant/endorser/pdf"
)

// Converter turns a photo into a single page of the requested size, with the photo scaled to
// fit and centred. Intermediate files go into the scratch directory.
type Converter interface {
	Name() string
	Convert(ctx context.Context, photo string, size Size, scratch *Scratch) (*pdf.Page, error)
}

// MinExtent is the smallest drawn width or height, in points, accepted as a real rendering.
const MinExtent = 1.0

// Chain tries each converter in order and returns the first plausible page.
type Chain []Converter

func (c Chain) Name() string {
	names := []string{}
	for _, converter := range c {
		names = append(names, converter.Name())
	}

	return strings.Join(names, ",")
}

func (c Chain) Convert(ctx context.Context, photo string, size Size, scratch *Scratch) (*pdf.Page, error) {
	if len(c) == 0 {
		return nil, ErrNoConverter
	}

	errs := []error{}
	for _, converter := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := converter.Convert(ctx, photo, size, scratch)
		if err == nil {
			err = plausible(page)
		}

		if err == nil {
			return page, nil
		}

		warnf("%v: %v failed (%v)", filepath.Base(photo), converter.Name(), err)
		errs = append(errs, fmt.Errorf("%v: %w", converter.Name(), err))
	}

	return nil, errors.Join(errs...)
}

func plausible(page *pdf.Page) error {
	if page == nil || len(page.Placements) == 0 {
		return fmt.Errorf("%w: empty page", ErrImplausible)
	}

	for _, p := range page.Placements {
		extent := p.Extent()
		if extent.Width() < MinExtent || extent.Height() < MinExtent {
			return fmt.Errorf("%w: drawn size %vx%v", ErrImplausible, extent.Width(), extent.Height())
		}
	}

	return nil
}

// Direct decodes the photo in process and places it as an image XObject.
type Direct struct {
}

func (d Direct) Name() string {
	return "direct"
}

func (d Direct) Convert(ctx context.Context, photo string, size Size, scratch *Scratch) (*pdf.Page, error) {
	x, err := decode(photo)
	if err != nil {
		return nil, err
	}

	region := FitCentered(float64(x.Width), float64(x.Height), size)
	page := pdf.NewPage(pdf.Box(size.Width, size.Height))

	return page.With(pdf.Placement{Object: x, Matrix: pdf.Place(region)}), nil
}

// Rasterizer converts a photo with an external command line tool (ImageMagick by default),
// which handles formats and orientation metadata the in-process decoders do not. The tool
// renders onto a white page of the target aspect and the result is fitted to the target
// page on import.
type Rasterizer struct {
	Command   string
	Density   int
	MinOutput int64
	Timeout   time.Duration
}

func NewRasterizer(config RasterizerConfig) *Rasterizer {
	return &Rasterizer{
		Command:   config.Command,
		Density:   config.Density,
		MinOutput: config.MinOutput,
		Timeout:   config.Timeout,
	}
}

func (r *Rasterizer) Name() string {
	return r.Command
}

// Args returns the command line arguments for a conversion.
func (r *Rasterizer) Args(photo string, size Size, out string) []string {
	w := int(math.Round(size.Width / pointsPerInch * float64(r.Density)))
	h := int(math.Round(size.Height / pointsPerInch * float64(r.Density)))
	extent := fmt.Sprintf("%dx%d", w, h)

	return []string{
		photo + "[0]",
		"-auto-orient",
		"-resize", extent,
		"-background", "white",
		"-gravity", "center",
		"-extent", extent,
		"-units", "PixelsPerInch",
		"-density", strconv.Itoa(r.Density),
		out,
	}
}

func (r *Rasterizer) Convert(ctx context.Context, photo string, size Size, scratch *Scratch) (*pdf.Page, error) {
	command, err := execabs.LookPath(r.Command)
	if err != nil {
		return nil, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out := scratch.File("raster", ".pdf")
	defer os.Remove(out)

	cmd := execabs.CommandContext(ctx, command, r.Args(photo, size, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, strings.TrimSpace(string(output)))
	}

	if info, err := os.Stat(out); err != nil {
		return nil, err
	} else if info.Size() < r.MinOutput {
		return nil, fmt.Errorf("%w: %v bytes", ErrImplausible, info.Size())
	}

	doc, err := pdf.Open(out)
	if err != nil {
		return nil, err
	} else if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrImplausible)
	}

	src := doc.Pages[0]
	region := FitCentered(src.Width(), src.Height(), size)

	return src.Transformed(pdf.Box(size.Width, size.Height), pdf.Fit(src.MediaBox, region)), nil
}

// NewChain returns the default converter chain: the external rasterizer, unless it has been
// disabled, then the in-process decoder.
func NewChain(config RasterizerConfig) Chain {
	chain := Chain{}
	if !config.Disabled {
		chain = append(chain, NewRasterizer(config))
	}

	return append(chain, Direct{})
}
