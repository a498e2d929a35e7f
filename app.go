package main

import (
	"fmt"
	"log/slog"

	"Pixie/ai"
	"Pixie/core"
	"Pixie/imagery"
	"Pixie/lib/sl"
	"Pixie/metrics"
	"Pixie/storage"
)

// app holds everything a command needs, built once from the config file.
type app struct {
	conf    *core.Config
	log     *slog.Logger
	store   storage.ImageStorage
	metrics *metrics.Metrics
}

func newApp(configPath string) (*app, error) {
	conf, err := core.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Images.Model),
	).Debug("starting pixie")

	a := &app{
		conf:  conf,
		log:   log,
		store: openStorage(conf, log),
	}
	if conf.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	return a, nil
}

func openStorage(conf *core.Config, log *slog.Logger) storage.ImageStorage {
	if !conf.Mongo.Enabled {
		log.Debug("using in-memory storage")
		return storage.NewMemoryStorage()
	}
	store, err := storage.NewMongoStorage(conf.MongoURI(), conf.Mongo.Database, log)
	if err != nil {
		log.With(
			slog.String("db", conf.Mongo.Database),
			slog.String("user", conf.Mongo.User),
			slog.String("host", conf.Mongo.Host),
		).Error("falling back to memory", sl.Err(err))
		return storage.NewMemoryStorage()
	}
	log.Info("using MongoDB storage")
	return store
}

// settings wires the provider client and the ledger into the workflows.
// outputDir overrides the configured directory when set.
func (a *app) settings(outputDir string) imagery.Settings {
	if outputDir == "" {
		outputDir = a.conf.OutputDir
	}
	images := a.conf.Images
	return imagery.Settings{
		APIKey:           a.conf.OpenAIApiKey,
		Provider:         ai.NewClient(a.conf.OpenAIApiKey, a.conf.OpenAIBaseURL, images.Model, images.RequestTimeout, a.log),
		OutputDir:        outputDir,
		VariationSize:    images.VariationSize,
		RequestTimeout:   images.RequestTimeout,
		DownloadTimeout:  images.DownloadTimeout,
		MaxDownloadBytes: images.MaxDownloadBytes,
		Ledger:           a.store,
		Metrics:          a.metrics,
		Log:              a.log,
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("closing storage", sl.Err(err))
	}
}

func defaultSize(conf *core.Config) (imagery.Size, error) {
	size, err := imagery.ParseSize(conf.Images.Size)
	if err != nil {
		return "", fmt.Errorf("images.size: %w", err)
	}
	return size, nil
}
