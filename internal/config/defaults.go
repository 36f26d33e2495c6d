package config

const (
	defaultLedgerPath      = "~/.local/share/tally/ledger.db"
	defaultSnapSeconds     = 0
	defaultNightlyCutoff   = 5
	defaultHoursPerWorkday = 7.6
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Ledger: Ledger{
			Path: defaultLedgerPath,
		},
		Fetch: Fetch{
			SnapSeconds: defaultSnapSeconds,
		},
		Convert: Convert{
			DatetimeMiddle: true,
			NightlyCutoff:  defaultNightlyCutoff,
			MustMatch:      true,
			Merge:          true,
		},
		Report: Report{
			HoursPerWorkday: defaultHoursPerWorkday,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
