package config

import (
	"fmt"

	"git.sr.ht/~nadine/mailthread/lib/source"
	"github.com/go-ini/ini"
)

type SourcesConfig struct {
	MaildirPP      bool     `ini:"maildirpp"`
	FoldersExclude []string `ini:"folders-exclude" delim:","`
}

func defaultSourcesConfig() SourcesConfig {
	return SourcesConfig{}
}

func (config *Config) parseSources(file *ini.File) error {
	src, err := file.GetSection("sources")
	if err != nil {
		return nil
	}
	if err := src.StrictMapTo(&config.Sources); err != nil {
		return fmt.Errorf("[sources]: %w", err)
	}
	for _, pattern := range config.Sources.FoldersExclude {
		if pattern == "" {
			return fmt.Errorf("[sources].folders-exclude: empty pattern")
		}
	}
	return nil
}

// Options returns the options to open sources with. cache may be nil.
func (src *SourcesConfig) Options(cache *source.Cache) source.Options {
	return source.Options{
		MaildirPP:      src.MaildirPP,
		FoldersExclude: src.FoldersExclude,
		Cache:          cache,
	}
}
