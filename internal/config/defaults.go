package config

const (
	defaultDataDir          = "~/.local/share/preloader/data"
	defaultLogDir           = "~/.local/share/preloader/logs"
	defaultBind             = "0.0.0.0:8888"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultOCRLanguage      = "eng"
	defaultOCRUpscaleFactor = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			Bind:    defaultBind,
		},
		OCR: OCR{
			Enabled:       true,
			Languages:     []string{defaultOCRLanguage},
			UpscaleFactor: defaultOCRUpscaleFactor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
