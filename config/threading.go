package config

import (
	"fmt"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/sort"
	"github.com/go-ini/ini"
)

type ThreadingConfig struct {
	Prune             bool   `ini:"prune"`
	GroupBySubject    bool   `ini:"group-by-subject"`
	SubjectNormalizer string `ini:"subject-normalizer"`
	MaxMessages       int    `ini:"max-messages"`
	Sort              string `ini:"sort"`

	SortCriteria []*sort.Criterion `ini:"-"`
}

func defaultThreadingConfig() ThreadingConfig {
	return ThreadingConfig{
		SubjectNormalizer: "jwz",
		Sort:              "date",
	}
}

func (config *Config) parseThreading(file *ini.File) error {
	thr, err := file.GetSection("threading")
	if err != nil {
		return nil
	}
	if err := thr.StrictMapTo(&config.Threading); err != nil {
		return fmt.Errorf("[threading]: %w", err)
	}
	if _, err := config.Threading.Normalizer(); err != nil {
		return fmt.Errorf("[threading].subject-normalizer: %w", err)
	}
	if config.Threading.MaxMessages < 0 {
		return fmt.Errorf("[threading].max-messages: must be positive or 0")
	}
	if err := config.Threading.parseSort(); err != nil {
		return fmt.Errorf("[threading].sort: %w", err)
	}
	return nil
}

func (thr *ThreadingConfig) parseSort() error {
	criteria, err := sort.ParseSortCriteria(thr.Sort)
	if err != nil {
		return err
	}
	thr.SortCriteria = criteria
	return nil
}

// SetSort replaces the sort criteria, as the -s flag does.
func (thr *ThreadingConfig) SetSort(s string) error {
	old := thr.Sort
	thr.Sort = s
	if err := thr.parseSort(); err != nil {
		thr.Sort = old
		return err
	}
	return nil
}

// Normalizer returns the subject normalizer named by subject-normalizer.
func (thr *ThreadingConfig) Normalizer() (func(string) string, error) {
	switch thr.SubjectNormalizer {
	case "", "jwz":
		return jwz.NormalizeSubject, nil
	case "rfc5256":
		return jwz.BaseSubject, nil
	}
	return nil, fmt.Errorf("%q: must be jwz or rfc5256", thr.SubjectNormalizer)
}

// Threader returns a jwz.Threader set up according to the configuration.
func (thr *ThreadingConfig) Threader() *jwz.Threader {
	t := jwz.NewThreader()
	t.Prune = thr.Prune
	t.MaxMessages = thr.MaxMessages
	if normalize, err := thr.Normalizer(); err == nil {
		t.Normalize = normalize
	}
	return t
}
