package watcher

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Loader consumes the watched file. Load is called once up front and
// again after every write to the file.
type Loader interface {
	Load(path string) error
}

type Watcher struct {
	stop chan struct{}
	done chan error
}

// LoadAndWatch loads the file through the loader and reloads it whenever
// it changes on disk. A failed reload keeps the previously loaded state.
func LoadAndWatch(path string, loader Loader) (*Watcher, error) {
	if err := loader.Load(path); err != nil {
		return nil, errors.Wrap(err, "initial load")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fs watcher")
	}
	if err := fsw.Add(path); err != nil {
		return nil, errors.Wrap(err, "watching file")
	}

	w := &Watcher{
		stop: make(chan struct{}),
		done: make(chan error),
	}
	go w.loop(fsw, path, loader)
	return w, nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, path string, loader Loader) {
	for {
		select {
		case event := <-fsw.Events:
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := loader.Load(path); err != nil {
				log.Println(errors.Wrapf(err, "reloading %s", path))
			}
		case err := <-fsw.Errors:
			log.Println(errors.Wrapf(err, "watching %s", path))
		case <-w.stop:
			w.done <- fsw.Close()
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.stop)
	return <-w.done
}
