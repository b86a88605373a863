package export

import (
	"io"
	"log/slog"
	"os"

	"github.com/ZacxDev/video-captioner/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const progressSteps = 1000

// Reporter shows export progress as a bar on a terminal and as sampled log
// lines everywhere else.
type Reporter struct {
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewReporter picks the bar when out is a terminal.
func NewReporter(out io.Writer, logger *slog.Logger, description string) *Reporter {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Reporter{logger: logger, sampler: logging.NewProgressSampler(10)}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		r.bar = progressbar.NewOptions(progressSteps,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Update is a ProgressFunc.
func (r *Reporter) Update(fraction float64) {
	if r.bar != nil {
		_ = r.bar.Set(int(fraction * progressSteps))
		return
	}
	if r.sampler.ShouldLog(fraction*100, "render") {
		r.logger.Info("export progress", "percent", int(fraction*100))
	}
}

func (r *Reporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
