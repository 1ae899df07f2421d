package recognize

import (
	"context"
	"os/exec"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"preloader/internal/pacs"
)

// TesseractEngine implements Engine using the gosseract client.
type TesseractEngine struct {
	binary        string
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine. The binary name is
// only probed for availability; recognition itself goes through the gosseract
// bindings.
func NewTesseractEngine(binary string, languages []string) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractEngine{
		binary:        binary,
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize runs one recognition pass under the given layout mode.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, mode Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := exec.LookPath(e.binary); err != nil {
		return "", pacs.Wrap(pacs.ErrUnavailable, "recognize", "probe engine",
			"tesseract is not installed; install it and the trained language data", nil)
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", pacs.Wrap(pacs.ErrRecognition, "recognize", "set image", "", err)
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", pacs.Wrap(pacs.ErrRecognition, "recognize", "set languages", strings.Join(e.languages, ","), err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", pacs.Wrap(pacs.ErrRecognition, "recognize", "set page segmentation mode", "", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", pacs.Wrap(pacs.ErrRecognition, "recognize", "extract text", "", err)
	}
	return text, nil
}
