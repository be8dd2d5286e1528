package config

const (
	defaultLogDir      = "~/.local/share/cadence/logs"
	defaultExportDir   = "~/.local/share/cadence/exports"
	defaultJournalPath = "~/.local/share/cadence/journal.db"
	defaultAPIBind     = "127.0.0.1:8743"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultMode        = "pairwise"
	defaultPoolSize    = 4
	defaultOverlapRate = 0.2
)

// Default returns a Config populated with repository defaults. The dataset
// path and the annotator roster have no sensible defaults and must come from
// the config file.
func Default() Config {
	return Config{
		Dataset: Dataset{
			Mode: defaultMode,
		},
		Assignment: Assignment{
			PoolSize:    defaultPoolSize,
			OverlapRate: defaultOverlapRate,
		},
		Paths: Paths{
			LogDir:      defaultLogDir,
			ExportDir:   defaultExportDir,
			JournalPath: defaultJournalPath,
			APIBind:     defaultAPIBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
