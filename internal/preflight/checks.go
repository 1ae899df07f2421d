package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"preloader/internal/config"
	"preloader/internal/deps"
)

// minFreeBytes is the free-space floor for the data directory. Uploads are
// rejected with 503 once the volume drops below this, so surface it here
// before the daemon starts accepting them.
const minFreeBytes = 256 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available to the calling user.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need at least %s", formatBytes(free), formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", formatBytes(free))}
}

// CheckTesseract verifies the recognition binary is present and carries
// trained data for every configured language.
func CheckTesseract(_ context.Context, cfg *config.Config) Result {
	const name = "Tesseract"

	binary := strings.TrimSpace(cfg.TesseractBinary())
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     binary,
		Description: "Required for schedule text recognition",
	}})
	if len(statuses) == 0 || !statuses[0].Available {
		detail := "binary not found"
		if len(statuses) > 0 && statuses[0].Detail != "" {
			detail = statuses[0].Detail
		}
		return Result{Name: name, Detail: detail}
	}

	langs := deps.CheckTesseractLanguages(binary, cfg.OCR.Languages)
	if !langs.Available {
		return Result{Name: name, Detail: langs.Detail}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("languages: %s", strings.Join(cfg.OCR.Languages, ", "))}
}

// CheckSystemDeps evaluates all external-binary requirements for the given
// config. Both the daemon and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Tesseract",
			Command:     cfg.TesseractBinary(),
			Description: "Required for schedule text recognition",
			Optional:    !cfg.OCR.Enabled,
		},
	}
	statuses := deps.CheckBinaries(requirements)
	if cfg.OCR.Enabled && len(statuses) > 0 && statuses[0].Available {
		statuses = append(statuses, deps.CheckTesseractLanguages(cfg.TesseractBinary(), cfg.OCR.Languages))
	}
	return statuses
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
