package recognize

import "context"

// Mode encodes the text-layout assumption handed to the recognition engine.
// Values match Tesseract page segmentation modes.
type Mode int

const (
	// ModeAuto lets the engine segment the page fully automatically.
	ModeAuto Mode = 3
	// ModeSingleColumn assumes a single column of text of variable sizes.
	ModeSingleColumn Mode = 4
	// ModeUniformBlock assumes a single uniform block of text.
	ModeUniformBlock Mode = 6
)

// DefaultModes is the fixed priority order the scorer tries. Earlier modes win
// score ties.
func DefaultModes() []Mode {
	return []Mode{ModeUniformBlock, ModeSingleColumn, ModeAuto}
}

// Engine runs text recognition on an encoded image under one layout mode.
// Implementations report a dependency-unavailable condition distinctly from
// recognition failures.
type Engine interface {
	Recognize(ctx context.Context, image []byte, mode Mode) (string, error)
}
