package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proximity-cli/internal/config"
	"github.com/sells-group/proximity-cli/internal/directory"
	"github.com/sells-group/proximity-cli/internal/engine"
	"github.com/sells-group/proximity-cli/internal/history"
	"github.com/sells-group/proximity-cli/internal/notify"
	"github.com/sells-group/proximity-cli/internal/source"
)

// env bundles the collaborators built from configuration.
type env struct {
	Store  history.Store
	Engine *engine.Engine
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// openStore builds and migrates the configured history backend.
func openStore(ctx context.Context) (history.Store, error) {
	return history.Open(ctx, cfg.Store.Driver, cfg.Store.Path, cfg.Store.DatabaseURL)
}

// buildSource constructs the configured location source.
func buildSource() (source.Source, error) {
	switch cfg.Source.Mode {
	case "websocket":
		if cfg.Source.URL == "" {
			return nil, eris.New("source: websocket mode requires source.url")
		}
		return source.NewWebsocket(cfg.Source.URL), nil
	case "replay":
		if cfg.Source.TrackPath == "" {
			return nil, eris.New("source: replay mode requires source.track_path")
		}
		return source.NewReplay(cfg.Source.TrackPath)
	default:
		return nil, eris.Errorf("source: unknown mode %q", cfg.Source.Mode)
	}
}

// buildDirectory constructs the configured POI directory client.
func buildDirectory() (directory.Directory, error) {
	switch cfg.Directory.Mode {
	case "http":
		if cfg.Directory.URL == "" {
			return nil, eris.New("directory: http mode requires directory.url")
		}
		return directory.NewHTTP(cfg.Directory.URL, cfg.Directory.FetchTimeout), nil
	case "file":
		if cfg.Directory.Path == "" {
			return nil, eris.New("directory: file mode requires directory.path")
		}
		return directory.NewFile(cfg.Directory.Path), nil
	default:
		return nil, eris.Errorf("directory: unknown mode %q", cfg.Directory.Mode)
	}
}

// buildDispatcher constructs the configured notification surface.
func buildDispatcher() (notify.Dispatcher, error) {
	switch cfg.Dispatch.Mode {
	case "log":
		return notify.NewLog(), nil
	case "webhook":
		if cfg.Dispatch.WebhookURL == "" {
			return nil, eris.New("dispatch: webhook mode requires dispatch.webhook_url")
		}
		return notify.NewWebhook(cfg.Dispatch.WebhookURL), nil
	default:
		return nil, eris.Errorf("dispatch: unknown mode %q", cfg.Dispatch.Mode)
	}
}

// initEngine wires the full engine from configuration.
func initEngine(ctx context.Context) (*env, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	src, err := buildSource()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	dir, err := buildDirectory()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	dispatcher, err := buildDispatcher()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	eng := engine.New(cfg.Geofence, src, dir, store, dispatcher, sourceOptions(cfg.Source), nil)
	return &env{Store: store, Engine: eng}, nil
}

func sourceOptions(sc config.SourceConfig) source.Options {
	return source.Options{
		AccuracyM:    sc.AccuracyM,
		MinInterval:  sc.MinInterval,
		MinDistanceM: sc.MinDistanceM,
		QueueDepth:   sc.QueueDepth,
	}
}
