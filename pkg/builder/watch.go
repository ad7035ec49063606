package builder

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
)

// watchDebounce groups bursts of filesystem events into one rebuild.
const watchDebounce = 300 * time.Millisecond

// Watch rebuilds the target whenever one of the configured source or header
// files changes. It blocks until the context is canceled. Build failures are
// logged and the watch continues.
func (b *Builder) Watch(ctx context.Context) error {
	if err := b.Build(ctx, false); err != nil {
		log(ctx).Error().Err(err).Msg("initial build failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	watched := map[string]bool{}
	sources := map[string]bool{}
	for _, file := range b.SourceFiles() {
		abs, err := filepath.Abs(file)
		if err != nil {
			return eris.Wrapf(err, "failed to resolve %s", file)
		}
		sources[abs] = true

		// watch the directory, not the file, so editors that replace files
		// on save don't break the watch
		dir := filepath.Dir(abs)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return eris.Wrapf(err, "failed to watch %s", dir)
			}
			watched[dir] = true
		}
	}

	if len(watched) == 0 {
		return eris.New("nothing to watch: no source files configured")
	}
	log(ctx).Info().Msgf("watching %d directories", len(watched))

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !sources[abs] {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log(ctx).Warn().Err(err).Msg("watch error")

		case <-rebuild:
			if err := b.Build(ctx, false); err != nil {
				log(ctx).Error().Err(err).Msg("rebuild failed")
			}
		}
	}
}
