package config

import (
	"errors"
	"fmt"

	"tally/internal/convert"
)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by RequireToggl and RequireOdoo so that commands which
// do not need them still run.
func (c *Config) Validate() error {
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.SnapSeconds < 0 {
		return errors.New("fetch.snap_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.NightlyCutoff < 0 || c.Convert.NightlyCutoff >= 24 {
		return errors.New("convert.nightly_cutoff must be between 0 and 24")
	}
	for _, key := range c.Convert.MergeKeys {
		if !convert.KnownMergeKey(key) {
			return fmt.Errorf("convert.merge_keys: unknown key %q", key)
		}
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.HoursPerWorkday <= 0 || c.Report.HoursPerWorkday > 24 {
		return errors.New("report.hours_per_workday must be between 0 and 24")
	}
	return nil
}
