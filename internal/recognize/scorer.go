package recognize

import (
	"context"
	"log/slog"
	"regexp"

	"preloader/internal/logging"
)

// datePattern matches day/month/year substrings with 1-2 digit day and month,
// 2-4 digit year, separated by slash or hyphen.
var datePattern = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)

// Result is the winning recognition output.
type Result struct {
	Text       string `json:"text"`
	DatesFound int    `json:"dates_found"`
	Mode       Mode   `json:"-"`
}

// Scorer runs the engine under several layout modes and keeps the output with
// the most recognizable dates.
type Scorer struct {
	engine  Engine
	modes   []Mode
	upscale int
	logger  *slog.Logger
}

// NewScorer builds a scorer over the given engine. A nil or empty mode list
// selects the default priority order.
func NewScorer(engine Engine, modes []Mode, upscale int, logger *slog.Logger) *Scorer {
	if len(modes) == 0 {
		modes = DefaultModes()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{
		engine:  engine,
		modes:   modes,
		upscale: upscale,
		logger:  logging.NewComponentLogger(logger, "recognize"),
	}
}

// CountDates returns the number of date-like substrings in text.
func CountDates(text string) int {
	return len(datePattern.FindAllString(text, -1))
}

// Best preprocesses the image once, tries each mode in priority order, and
// returns the text with the strictly highest date count. Equal scores keep
// the earliest mode tried, so the outcome is deterministic even if the modes
// were evaluated concurrently.
func (s *Scorer) Best(ctx context.Context, image []byte) (Result, error) {
	prepared, err := Preprocess(image, s.upscale)
	if err != nil {
		return Result{}, err
	}

	best := Result{Mode: s.modes[0]}
	for _, mode := range s.modes {
		text, err := s.engine.Recognize(ctx, prepared, mode)
		if err != nil {
			return Result{}, err
		}
		count := CountDates(text)
		s.logger.Debug("recognition pass",
			logging.Int("mode", int(mode)),
			logging.Int("dates_found", count))
		if count > best.DatesFound {
			best = Result{Text: text, DatesFound: count, Mode: mode}
		}
	}
	return best, nil
}
