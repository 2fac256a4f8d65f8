package explorer

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Progress is shown while a region listing is being crawled.
type Progress interface {
	Start(message string)
	Stop()
}

type SpinnerProgress struct {
	spinner *spinner.Spinner
}

// NewSpinnerProgress draws on w, normally stderr, so prompts on stdout
// stay clean.
func NewSpinnerProgress(w io.Writer) *SpinnerProgress {
	return &SpinnerProgress{
		spinner: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

func (p *SpinnerProgress) Start(message string) {
	p.spinner.Suffix = " " + message
	p.spinner.Start()
}

func (p *SpinnerProgress) Stop() {
	p.spinner.Stop()
}

type NoopProgress struct{}

func (NoopProgress) Start(message string) {}

func (NoopProgress) Stop() {}
