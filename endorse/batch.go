package endorse

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Report summarises a batch run.
type Report struct {
	ID       string
	Batch    string
	Output   string
	Started  time.Time
	Finished time.Time
	Endorsed []Outcome
	NoOutput []Skipped
	Failures []PhotoFailure
}

// Skipped is a subject for which no endorsed document was written.
type Skipped struct {
	Subject string
	Reason  string
}

// Run endorses every subject folder in the batch directory, in name order. Failures are
// recorded against the subject and never stop the batch. Only cancellation of the context
// ends the run early, in which case the partial report is returned with the context error.
func (p *Pipeline) Run(ctx context.Context, batch, output string) (*Report, error) {
	report := Report{
		ID:      NewID(),
		Batch:   batch,
		Output:  output,
		Started: time.Now(),
	}

	entries, err := os.ReadDir(batch)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if err := ctx.Err(); err != nil {
			report.Finished = time.Now()
			return &report, err
		}

		dir := filepath.Join(batch, entry.Name())
		subject, err := Discover(dir, p.config)
		if err != nil {
			warnf("%v: %v", entry.Name(), err)
			report.NoOutput = append(report.NoOutput, Skipped{Subject: entry.Name(), Reason: err.Error()})
			continue
		}

		outcome, err := p.Endorse(ctx, subject, output)
		if err != nil {
			if IsNoOutput(err) {
				infof("%v: no output (%v)", subject.Name, err)
			} else {
				warnf("%v: %v", subject.Name, err)
			}

			report.NoOutput = append(report.NoOutput, Skipped{Subject: subject.Name, Reason: err.Error()})
			continue
		}

		infof("%v: endorsed %v (%v layout pages, %v photos)", subject.Name, outcome.Output, outcome.LayoutPages, outcome.PhotoPages)

		report.Endorsed = append(report.Endorsed, *outcome)
		report.Failures = append(report.Failures, outcome.Failed...)
	}

	report.Finished = time.Now()

	return &report, nil
}
