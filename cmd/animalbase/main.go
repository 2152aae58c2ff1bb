package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/abelbrown/animalbase/internal/config"
	"github.com/abelbrown/animalbase/internal/controller"
	"github.com/abelbrown/animalbase/internal/fetch"
	"github.com/abelbrown/animalbase/internal/logging"
	"github.com/abelbrown/animalbase/internal/store"
	"github.com/abelbrown/animalbase/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to config.toml")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: animalbase [-config path] [source ...]\n\n")
		fmt.Fprintf(os.Stderr, "A source is a JSON file, an http(s) URL or a SQLite database.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.SetLocations(flag.Args())
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logging.Init(cfg.DataDir, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	settings, err := cfg.ViewSettings()
	if err != nil {
		log.Fatalf("Invalid view settings: %v", err)
	}

	sources, err := cfg.BuildSources()
	if err != nil {
		log.Fatalf("Failed to create sources: %v", err)
	}
	for _, s := range sources {
		logging.Info("source configured", "source", s.Name())
	}

	st, err := store.New()
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := controller.New(st, settings, logging.WithPrefix("controller"))

	// loadRecords fetches every source off the update loop; the result is
	// applied by the App when RecordsLoaded arrives.
	loadRecords := func() tea.Cmd {
		return func() tea.Msg {
			records, err := fetch.FetchAll(ctx, sources...)
			if err != nil {
				return ui.RecordsLoaded{Err: err}
			}
			logging.Debug("records fetched", "count", len(records))
			return ui.RecordsLoaded{Records: records}
		}
	}

	app := ui.NewApp(ctrl, loadRecords)
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("program exited", "error", err)
		log.Printf("Error running program: %v", err)
	}
}
