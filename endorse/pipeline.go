package endorse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verdant/endorser/pdf"
)

// Pipeline stamps, normalises and assembles endorsed documents. It is not safe for
// concurrent use by multiple subjects.
type Pipeline struct {
	config    Config
	converter Converter
	stamp     *Stamp
	stampErr  error
	debug     bool
}

// Outcome is the result of endorsing one subject.
type Outcome struct {
	Subject     string
	Output      string
	LayoutPages int
	PhotoPages  int
	Failed      []PhotoFailure
}

// PhotoFailure records a photo that was skipped because no converter could render it.
type PhotoFailure struct {
	Subject string
	Photo   string
	Reason  string
}

// NewPipeline loads the stamp asset once for the lifetime of the pipeline. An unreadable stamp
// does not fail the pipeline: it is reported against every subject instead.
func NewPipeline(config Config, converter Converter, debug bool) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := Pipeline{
		config:    config,
		converter: converter,
		debug:     debug,
	}

	if stamp, err := LoadStamp(config.Stamp); err != nil {
		warnf("%v", err)
		p.stampErr = err
	} else {
		p.stamp = stamp
	}

	return &p, nil
}

// Endorse builds the endorsed document for a subject and writes it atomically to the output
// directory: every layout page stamped and normalised, then one page per convertible photo.
func (p *Pipeline) Endorse(ctx context.Context, subject *Subject, output string) (*Outcome, error) {
	if err := subject.Check(p.config.RequirePhotos); err != nil {
		return nil, err
	}

	if p.stampErr != nil {
		return nil, p.stampErr
	}

	scratch, err := NewScratch(p.config.Workdir)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := scratch.Remove(); err != nil {
			warnf("%v: error removing scratch directory %v (%v)", subject.Name, scratch.Dir(), err)
		}
	}()

	layout, err := pdf.Open(subject.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: layout %v (%v)", ErrAssetUnreadable, subject.Layout, err)
	}

	outcome := Outcome{
		Subject: subject.Name,
		Output:  subject.Output(output),
	}

	doc := pdf.Document{}
	for _, page := range layout.Pages {
		doc.Append(Normalise(p.stamp.Apply(page), p.config.Page))
	}

	outcome.LayoutPages = len(layout.Pages)

	for _, photo := range subject.Photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.converter.Convert(ctx, photo, p.config.Page, scratch)
		if err != nil {
			warnf("%v: skipping %v (%v)", subject.Name, filepath.Base(photo), err)
			outcome.Failed = append(outcome.Failed, PhotoFailure{
				Subject: subject.Name,
				Photo:   filepath.Base(photo),
				Reason:  err.Error(),
			})
			continue
		}

		if p.debug {
			debugf("%v: converted %v", subject.Name, filepath.Base(photo))
		}

		doc.Append(page)
		outcome.PhotoPages++
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%v: %w", subject.Name, ErrNoPages)
	}

	if err := os.MkdirAll(output, 0770); err != nil {
		return nil, err
	}

	if err := doc.WriteFile(outcome.Output); err != nil {
		return nil, err
	}

	return &outcome, nil
}

// IsNoOutput returns true for errors that mean the subject was skipped rather than failed.
func IsNoOutput(err error) bool {
	return errors.Is(err, ErrNoLayout) || errors.Is(err, ErrNoPhotos)
}
