package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"

	"git.sr.ht/~nadine/mailthread/config"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/source"
)

// set at build time
var Version string

func buildInfo() string {
	info := Version
	if info == "" {
		info = "dev"
	}
	info += fmt.Sprintf(" (%s %s %s)",
		runtime.Version(), runtime.GOARCH, runtime.GOOS)
	return info
}

const usageText = `usage: mailthread [-hvpgw] [-c config] [-s sort] [-o tree|json|yaml]
                  [-m pattern] [-l level] path...`

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

type options struct {
	configPath string
	prune      bool
	group      bool
	watch      bool
	sort       string
	output     string
	pattern    string
	level      string
	paths      []string
}

func parseOptions(args []string, stdout io.Writer) (*options, bool, error) {
	opts, optind, err := getopt.Getopts(args, "hvpgwc:s:o:m:l:")
	if err != nil {
		return nil, false, &usageError{msg: err.Error()}
	}
	o := &options{}
	for _, opt := range opts {
		switch opt.Option {
		case 'h':
			fmt.Fprintln(stdout, usageText)
			return nil, true, nil
		case 'v':
			fmt.Fprintln(stdout, "mailthread "+buildInfo())
			return nil, true, nil
		case 'p':
			o.prune = true
		case 'g':
			o.group = true
		case 'w':
			o.watch = true
		case 'c':
			o.configPath = opt.Value
		case 's':
			o.sort = opt.Value
		case 'o':
			o.output = opt.Value
		case 'm':
			o.pattern = opt.Value
		case 'l':
			o.level = opt.Value
		}
	}
	o.paths = args[optind:]
	if len(o.paths) == 0 {
		return nil, false, &usageError{msg: "no mailbox given"}
	}
	return o, false, nil
}

// loadConfig reads the configuration and applies the command line on top
// of it.
func loadConfig(o *options) (*config.Config, error) {
	conf, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.prune {
		conf.Threading.Prune = true
	}
	if o.group {
		conf.Threading.GroupBySubject = true
	}
	if o.sort != "" {
		if err := conf.Threading.SetSort(o.sort); err != nil {
			return nil, &usageError{msg: "-s: " + err.Error()}
		}
	}
	if o.output != "" {
		if err := conf.UI.SetFormat(o.output); err != nil {
			return nil, &usageError{msg: "-o: " + err.Error()}
		}
	}
	if o.level != "" {
		level, err := log.ParseLevel(o.level)
		if err != nil {
			return nil, &usageError{msg: "-l: " + err.Error()}
		}
		conf.General.LogLevel = level
	}
	return conf, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, done, err := parseOptions(args, stdout)
	if err != nil || done {
		return err
	}
	conf, err := loadConfig(o)
	if err != nil {
		return err
	}
	if err := conf.General.InitLogging(); err != nil {
		return err
	}
	log.Infof("Starting up version %s", buildInfo())

	var cache *source.Cache
	if dir := conf.General.CachePath(); dir != "" {
		cache, err = source.OpenCache(dir)
		if err != nil {
			log.Errorf("failed opening cache db: %v", err)
			cache = nil
		}
		defer cache.Close()
	}

	sources := make([]source.Source, 0, len(o.paths))
	for _, path := range o.paths {
		src, err := source.Open(path, conf.Sources.Options(cache))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		sources = append(sources, src)
	}

	if err := render(stdout, conf, sources, o.pattern); err != nil {
		return err
	}
	if o.watch {
		return watch(ctx, stdout, conf, sources, o.pattern)
	}
	return nil
}

func main() {
	defer log.PanicHandler()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args, os.Stdout)
	stop()

	var uerr *usageError
	switch {
	case err == nil:
	case errors.As(err, &uerr):
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2) //nolint:gocritic // PanicHandler does not need to run as it's not a panic
	default:
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}
