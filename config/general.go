package config

import (
	"fmt"
	"os"

	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/xdg"
	"github.com/go-ini/ini"
	"github.com/mattn/go-isatty"
)

type GeneralConfig struct {
	LogFile  string       `ini:"log-file"`
	LogLevel log.LogLevel `ini:"-"`
	CacheDir string       `ini:"cache-dir"`
}

func defaultGeneralConfig() GeneralConfig {
	return GeneralConfig{
		LogLevel: log.INFO,
	}
}

func (config *Config) parseGeneral(file *ini.File) error {
	gen, err := file.GetSection("general")
	if err != nil {
		return nil
	}
	if err := gen.StrictMapTo(&config.General); err != nil {
		return fmt.Errorf("[general]: %w", err)
	}
	if level, err := gen.GetKey("log-level"); err == nil {
		l, err := log.ParseLevel(level.String())
		if err != nil {
			return fmt.Errorf("[general].log-level: %w", err)
		}
		config.General.LogLevel = l
	}
	return nil
}

// CachePath returns the directory of the header cache, empty when caching
// is disabled.
func (gen *GeneralConfig) CachePath() string {
	switch gen.CacheDir {
	case "":
		return ""
	case "default":
		return xdg.CachePath("mailthread", "headers")
	}
	return xdg.ExpandHome(gen.CacheDir)
}

// InitLogging sends the logs to log-file when set. Otherwise they go to
// stderr; when stderr is redirected to a file the level is forced to DEBUG.
func (gen *GeneralConfig) InitLogging() error {
	if gen.LogFile != "" {
		logFile, err := os.OpenFile(xdg.ExpandHome(gen.LogFile),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("log-file: %w", err)
		}
		return log.Init(logFile, false, gen.LogLevel)
	}
	level := gen.LogLevel
	if !isatty.IsTerminal(os.Stderr.Fd()) &&
		!isatty.IsCygwinTerminal(os.Stderr.Fd()) && level > log.DEBUG {
		// redirected to file, force DEBUG level
		level = log.DEBUG
	}
	if err := log.Init(os.Stderr, true, level); err != nil {
		return err
	}
	log.Debugf("mailthread.conf: [general] %#v", *gen)
	return nil
}
