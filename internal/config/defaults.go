package config

const (
	defaultIncomingDir            = "~/photoflow/incoming"
	defaultUploadDir              = "~/photoflow/upload"
	defaultUploadedDir            = "~/photoflow/uploaded"
	defaultFailedDir              = "~/photoflow/failed"
	defaultDataDir                = "~/.local/share/photoflow"
	defaultLogDir                 = "~/.local/share/photoflow/logs"
	defaultSchemaTimeoutSeconds   = 30
	defaultAnalysisBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultAnalysisModel          = "gpt-4o"
	defaultAnalysisTimeoutSeconds = 120
	defaultAnalysisMaxAttempts    = 3
	defaultGeocodeBaseURL         = "https://nominatim.openstreetmap.org/reverse"
	defaultGeocodeLanguage        = "de"
	defaultGeocodeUserAgent       = "photoflow/dev"
	defaultGeocodeTimeoutSeconds  = 5
	defaultBatchWorkers           = 2
	defaultImageTimeoutSeconds    = 300
	defaultNamingMask             = "Erni_Referenzfoto_%04d"
	defaultStatus                 = "Entwurf KI"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

func defaultExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IncomingDir: defaultIncomingDir,
			UploadDir:   defaultUploadDir,
			UploadedDir: defaultUploadedDir,
			FailedDir:   defaultFailedDir,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
		},
		Schema: Schema{
			TimeoutSeconds: defaultSchemaTimeoutSeconds,
		},
		Analysis: Analysis{
			BaseURL:        defaultAnalysisBaseURL,
			Model:          defaultAnalysisModel,
			TimeoutSeconds: defaultAnalysisTimeoutSeconds,
			MaxAttempts:    defaultAnalysisMaxAttempts,
			CacheEnabled:   true,
		},
		Geocode: Geocode{
			Enabled:        true,
			BaseURL:        defaultGeocodeBaseURL,
			Language:       defaultGeocodeLanguage,
			UserAgent:      defaultGeocodeUserAgent,
			TimeoutSeconds: defaultGeocodeTimeoutSeconds,
		},
		Batch: Batch{
			Workers:             defaultBatchWorkers,
			ImageTimeoutSeconds: defaultImageTimeoutSeconds,
			Extensions:          defaultExtensions(),
		},
		Naming: Naming{
			Mask: defaultNamingMask,
		},
		Enrich: Enrich{
			DefaultStatus: defaultStatus,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
