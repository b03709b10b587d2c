package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"subgen/internal/generate"
)

// progressView renders run progress on a terminal. On anything else it stays
// silent and the phase log lines carry progress instead.
type progressView struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressView(w io.Writer, enabled bool) *progressView {
	if !enabled || !isTerminal(w) {
		return &progressView{}
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(phaseLabel(generate.PhaseIdle, 0)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return &progressView{bar: bar}
}

func (p *progressView) Observe(evt generate.Event) {
	if p == nil || p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	st := evt.State
	p.bar.Describe(phaseLabel(st.Phase, len(st.Blocks)))
	_ = p.bar.Set(st.Percent)
}

// Finish clears the bar from the terminal.
func (p *progressView) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

func phaseLabel(phase generate.Phase, blocks int) string {
	switch phase {
	case generate.PhasePreparing:
		return "reading transcript"
	case generate.PhaseUploading:
		return "encoding audio"
	case generate.PhaseAnalyzing:
		return "waiting for model"
	case generate.PhaseGenerating:
		return fmt.Sprintf("generating (%d blocks)", blocks)
	case generate.PhaseSuccess:
		return "done"
	case generate.PhaseError:
		return "failed"
	default:
		return "starting"
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
