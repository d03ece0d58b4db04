package util

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/theckman/yacspin"

	"github.com/bacalhau-project/eventcollector/pkg/fanout"
)

const spinnerFrequency = 100 * time.Millisecond

// Progress shows a spinner with a completed/total counter while a fan-out
// runs. It does nothing when w is not a terminal.
type Progress struct {
	spin  *yacspin.Spinner
	label string
}

func NewProgress(w io.Writer, label string, total int) *Progress {
	p := &Progress{label: label}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return p
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:         spinnerFrequency,
		CharSet:           yacspin.CharSets[14],
		Writer:            w,
		Suffix:            " " + label,
		SuffixAutoColon:   true,
		Message:           fmt.Sprintf("0/%d", total),
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		log.Debug().Err(err).Msg("progress spinner disabled")
		return p
	}
	if err := spin.Start(); err != nil {
		log.Debug().Err(err).Msg("progress spinner disabled")
		return p
	}
	p.spin = spin
	return p
}

// Update is a fanout.ProgressFunc.
func (p *Progress) Update(completed, total int, _ fanout.Result) {
	if p.spin == nil {
		return
	}
	p.spin.Message(fmt.Sprintf("%d/%d", completed, total))
}

// Stop ends the spinner, marking the run as failed when success is false.
func (p *Progress) Stop(success bool) {
	if p.spin == nil {
		return
	}
	if success {
		_ = p.spin.Stop()
	} else {
		_ = p.spin.StopFail()
	}
}
