package main

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/framecore"
)

// watchScene reloads the scene at path whenever it changes and hands the new
// vertices to apply. The parent directory is watched so editors that replace
// the file on save are seen. Invalid scenes are logged and skipped. The
// returned function stops the watcher.
func watchScene(path string, apply func([]framecore.Vertex)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !sceneChanged(event, abs) {
					continue
				}
				vertices, err := loadScene(abs)
				if err != nil {
					slog.Warn("scene reload failed", "path", abs, "err", err)
					continue
				}
				slog.Info("scene reloaded", "path", abs, "vertices", len(vertices))
				apply(vertices)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("scene watcher error", "err", err)
			}
		}
	}()

	return func() {
		watcher.Close()
		<-done
	}, nil
}

func sceneChanged(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
