// Package xdg locates the user's home, configuration and cache directories.
package xdg

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"git.sr.ht/~nadine/mailthread/lib/log"
)

// assign to a local var to allow mocking in unit tests
var currentUser = user.Current

// HomeDir returns the current user home directory, from $HOME or, when it is
// unset, from the user database.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		u, e := currentUser()
		if e == nil {
			home = u.HomeDir
		} else {
			log.Errorf("HomeDir: %s (while handling %s)", e, err)
		}
	}
	return home
}

// ExpandHome joins fragments and replaces a leading ~ with the home dir.
func ExpandHome(fragments ...string) string {
	res := filepath.Join(fragments...)
	if strings.HasPrefix(res, "~/") || res == "~" {
		res = HomeDir() + strings.TrimPrefix(res, "~")
	}
	return res
}

// TildeHome replaces a leading home dir with ~. It is the inverse of
// ExpandHome.
func TildeHome(path string) string {
	home := HomeDir()
	if home != "" && (strings.HasPrefix(path, home+"/") || path == home) {
		path = "~" + strings.TrimPrefix(path, home)
	}
	return path
}

// CachePath returns paths joined below the user cache dir. Absolute paths are
// returned as they are.
func CachePath(paths ...string) string {
	return below(paths, func() string {
		var cache string
		if runtime.GOOS == "darwin" {
			cache = os.Getenv("XDG_CACHE_HOME")
		}
		if cache == "" {
			var err error
			cache, err = os.UserCacheDir()
			if err != nil {
				cache = ExpandHome("~/.cache")
			}
		}
		return cache
	})
}

// ConfigPath returns paths joined below the user config dir. Absolute paths
// are returned as they are.
func ConfigPath(paths ...string) string {
	return below(paths, func() string {
		if runtime.GOOS == "darwin" {
			config := os.Getenv("XDG_CONFIG_HOME")
			if config == "" {
				config = ExpandHome("~/Library/Preferences")
			}
			return config
		}
		config, err := os.UserConfigDir()
		if err != nil {
			config = ExpandHome("~/.config")
		}
		return config
	})
}

func below(paths []string, base func() string) string {
	res := ExpandHome(paths...)
	if !filepath.IsAbs(res) {
		res = filepath.Join(base(), res)
	}
	return res
}
