package config

import (
	"fmt"
	"os"
	"strings"

	"tally/internal/convert"
)

func (c *Config) normalize() error {
	c.normalizeToggl()
	c.normalizeOdoo()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeConvert()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeToggl() {
	c.Toggl.APIToken = strings.TrimSpace(c.Toggl.APIToken)
	if c.Toggl.APIToken == "" {
		if value, ok := os.LookupEnv("TALLY_TOGGL_TOKEN"); ok {
			c.Toggl.APIToken = strings.TrimSpace(value)
		}
	}
	c.Toggl.APIURL = strings.TrimSpace(c.Toggl.APIURL)
	c.Toggl.ReportsURL = strings.TrimSpace(c.Toggl.ReportsURL)
}

func (c *Config) normalizeOdoo() {
	c.Odoo.URL = strings.TrimRight(strings.TrimSpace(c.Odoo.URL), "/")
	c.Odoo.Database = strings.TrimSpace(c.Odoo.Database)
	c.Odoo.Username = strings.TrimSpace(c.Odoo.Username)
	if c.Odoo.Password == "" {
		if value, ok := os.LookupEnv("TALLY_ODOO_PASSWORD"); ok {
			c.Odoo.Password = value
		}
	}
}

func (c *Config) normalizeLedger() error {
	var err error
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = defaultLedgerPath
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.Clients = trimList(c.Fetch.Clients)
	c.Fetch.Projects = trimList(c.Fetch.Projects)
	c.Fetch.ProjectsExclude = trimList(c.Fetch.ProjectsExclude)
	c.Fetch.Tags = trimList(c.Fetch.Tags)
	c.Fetch.TagsExclude = trimList(c.Fetch.TagsExclude)
}

func (c *Config) normalizeConvert() {
	keys := trimList(c.Convert.MergeKeys)
	if len(keys) == 0 {
		keys = append([]string(nil), convert.DefaultMergeKeys...)
	}
	c.Convert.MergeKeys = keys
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	} else {
		c.Logging.File = ""
	}
	return nil
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
