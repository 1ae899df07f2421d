package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// CheckTesseractLanguages reports whether the configured recognition
// languages have trained data installed.
//
// `tesseract --list-langs` prints a banner line followed by one language code
// per line. A language listed in the config but absent from that output would
// make every recognition request fail, so surface it at status time instead.
func CheckTesseractLanguages(command string, languages []string) Status {
	result := Status{
		Name:        "Tesseract language data",
		Command:     strings.TrimSpace(command),
		Description: "Trained data for the configured recognition languages",
	}

	if result.Command == "" {
		result.Detail = "command not configured"
		return result
	}
	if _, err := exec.LookPath(result.Command); err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", result.Command)
		return result
	}

	out, err := exec.Command(result.Command, "--list-langs").CombinedOutput()
	if err != nil {
		result.Detail = fmt.Sprintf("--list-langs failed: %v", err)
		return result
	}

	installed := parseLanguageList(string(out))
	var missing []string
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if _, ok := installed[lang]; !ok {
			missing = append(missing, lang)
		}
	}
	if len(missing) > 0 {
		result.Detail = fmt.Sprintf("missing trained data: %s", strings.Join(missing, ", "))
		return result
	}
	result.Available = true
	return result
}

func parseLanguageList(output string) map[string]struct{} {
	langs := make(map[string]struct{})
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, " ") {
			continue
		}
		langs[line] = struct{}{}
	}
	return langs
}
