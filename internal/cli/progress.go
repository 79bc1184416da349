package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

type spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
}

// startSpinner animates on w until stop is called.
func startSpinner(w io.Writer, desc string) *spinner {
	s := &spinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
		done: make(chan struct{}),
	}
	go func() {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				_ = s.bar.Add(1)
			}
		}
	}()
	return s
}

func (s *spinner) stop() {
	close(s.done)
	_ = s.bar.Finish()
}
