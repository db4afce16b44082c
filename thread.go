package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.sr.ht/~nadine/mailthread/config"
	"git.sr.ht/~nadine/mailthread/lib/format"
	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/search"
	"git.sr.ht/~nadine/mailthread/lib/sort"
	"git.sr.ht/~nadine/mailthread/lib/source"
	"git.sr.ht/~nadine/mailthread/lib/watchers"
)

// threads reads every source in order and turns their messages into a
// sorted forest. Subject grouping works on pruned roots, so it implies
// pruning.
func threads(conf *config.Config, sources []source.Source, pattern string) ([]*jwz.Container, error) {
	var msgs []*jwz.Message
	for _, src := range sources {
		m, err := src.Messages()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name(), err)
		}
		log.Debugf("%s: %d messages", src.Name(), len(m))
		msgs = append(msgs, m...)
	}

	t := conf.Threading.Threader()
	roots, err := t.Thread(msgs)
	if err != nil {
		return nil, err
	}
	if conf.Threading.GroupBySubject {
		if !t.Prune {
			roots = jwz.Prune(roots)
		}
		roots = jwz.GatherSubjects(roots, t.Normalize)
	}
	roots = search.Filter(roots, pattern, t.Normalize)
	jwz.Sort(roots, sort.Less(conf.Threading.SortCriteria, msgs))
	log.Debugf("%d messages in %d threads", jwz.Count(roots), len(roots))
	return roots, nil
}

func render(w io.Writer, conf *config.Config, sources []source.Source, pattern string) error {
	roots, err := threads(conf, sources, pattern)
	if err != nil {
		return err
	}
	if conf.UI.Format == "tree" {
		return format.Tree(w, roots, conf.UI.TreeOptions())
	}
	return format.Encode(w, roots, conf.UI.Format)
}

const debounce = 500 * time.Millisecond

// watch renders the threads again whenever one of the sources changes,
// until ctx is done. Single files are watched through their directory so
// that mailboxes rewritten by renaming are still followed.
func watch(ctx context.Context, w io.Writer, conf *config.Config,
	sources []source.Source, pattern string,
) error {
	watcher, err := watchers.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, src := range sources {
		for _, p := range src.WatchPaths() {
			p = filepath.Clean(p)
			target := p
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				files[p] = true
				target = filepath.Dir(p)
			} else {
				dirs[p] = true
			}
			if err := watcher.Configure(target); err != nil {
				return fmt.Errorf("watch %s: %w", target, err)
			}
			log.Debugf("watching %s", target)
		}
	}
	relevant := func(ev *watchers.FSEvent) bool {
		p := filepath.Clean(ev.Path)
		return files[p] || dirs[p] || dirs[filepath.Dir(p)]
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			log.Tracef("%s", ev)
			timer.Reset(debounce)
		case <-timer.C:
			fmt.Fprintln(w)
			if err := render(w, conf, sources, pattern); err != nil {
				log.Errorf("%v", err)
			}
		}
	}
}
