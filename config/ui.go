package config

import (
	"fmt"

	"git.sr.ht/~nadine/mailthread/lib/format"
	"github.com/go-ini/ini"
)

type UIConfig struct {
	Format          string `ini:"format"`
	IndexFormat     string `ini:"index-format"`
	TimestampFormat string `ini:"timestamp-format"`
	Width           int    `ini:"width"`
}

func defaultUIConfig() UIConfig {
	return UIConfig{
		Format:          "tree",
		IndexFormat:     "%-20.20D %-20.20n %s",
		TimestampFormat: "2006-01-02 15:04",
	}
}

func (config *Config) parseUI(file *ini.File) error {
	ui, err := file.GetSection("ui")
	if err != nil {
		return nil
	}
	if err := ui.StrictMapTo(&config.UI); err != nil {
		return fmt.Errorf("[ui]: %w", err)
	}
	if err := config.UI.validateFormat(); err != nil {
		return fmt.Errorf("[ui].format: %w", err)
	}
	if config.UI.Width < 0 {
		return fmt.Errorf("[ui].width: must be positive or 0")
	}
	return nil
}

// SetFormat replaces the output format, as the -o flag does.
func (ui *UIConfig) SetFormat(f string) error {
	old := ui.Format
	ui.Format = f
	if err := ui.validateFormat(); err != nil {
		ui.Format = old
		return err
	}
	return nil
}

func (ui *UIConfig) validateFormat() error {
	switch ui.Format {
	case "tree", "json", "yaml":
		return nil
	}
	return fmt.Errorf("%q: must be tree, json or yaml", ui.Format)
}

// TreeOptions returns the options of the tree output.
func (ui *UIConfig) TreeOptions() format.TreeOptions {
	return format.TreeOptions{
		IndexFormat:     ui.IndexFormat,
		TimestampFormat: ui.TimestampFormat,
		Width:           ui.Width,
	}
}
