// Package config loads mailthread.conf.
package config

import (
	"errors"
	"fmt"
	"os"

	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/xdg"
	"github.com/go-ini/ini"
)

type Config struct {
	General   GeneralConfig
	Threading ThreadingConfig
	UI        UIConfig
	Sources   SourcesConfig
}

// DefaultPath is where the configuration is read from when no file is given
// on the command line.
func DefaultPath() string {
	return xdg.ConfigPath("mailthread", "mailthread.conf")
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	config := &Config{
		General:   defaultGeneralConfig(),
		Threading: defaultThreadingConfig(),
		UI:        defaultUIConfig(),
		Sources:   defaultSourcesConfig(),
	}
	// the default sort is valid
	_ = config.Threading.parseSort()
	return config
}

// Load reads the configuration file at path. When path is empty, the default
// location is used and a missing file only means the defaults apply.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	path = xdg.ExpandHome(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		log.Debugf("%s not found, using defaults", path)
		return Defaults(), nil
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters: "=",
	}, path)
	if err != nil {
		return nil, err
	}
	return parse(file)
}

// LoadBytes parses a configuration from memory.
func LoadBytes(data []byte) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters: "=",
	}, data)
	if err != nil {
		return nil, err
	}
	return parse(file)
}

func parse(file *ini.File) (*Config, error) {
	config := Defaults()
	for _, name := range file.SectionStrings() {
		switch name {
		case ini.DefaultSection, "general", "threading", "ui", "sources":
		default:
			return nil, fmt.Errorf("[%s]: unknown section", name)
		}
	}
	if err := config.parseGeneral(file); err != nil {
		return nil, err
	}
	if err := config.parseThreading(file); err != nil {
		return nil, err
	}
	if err := config.parseUI(file); err != nil {
		return nil, err
	}
	if err := config.parseSources(file); err != nil {
		return nil, err
	}
	return config, nil
}
