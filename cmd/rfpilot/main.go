package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/cli"
	"github.com/alexanderramin/rfpilot/internal/config"
	"github.com/alexanderramin/rfpilot/internal/db"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
	"github.com/alexanderramin/rfpilot/internal/llm"
	"github.com/alexanderramin/rfpilot/internal/logger"
	"github.com/alexanderramin/rfpilot/internal/repository"
	"github.com/alexanderramin/rfpilot/internal/service"
	"github.com/alexanderramin/rfpilot/internal/slides"
	"github.com/alexanderramin/rfpilot/internal/upload"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath(os.Args[1:]), afero.NewOsFs())
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)

	pipeline, err := cfg.StepPipeline()
	if err != nil {
		return err
	}

	var (
		drafts  repository.DraftRepo
		history repository.HistoryRepo
	)
	switch cfg.Storage.Driver {
	case "memory":
		h := repository.NewMemoryHistoryRepo()
		drafts, history = repository.NewMemoryDraftRepo(h), h
	default:
		database, err := db.OpenDB(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		drafts = repository.NewSQLiteDraftRepo(database)
		history = repository.NewSQLiteHistoryRepo(database)
	}

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(log)
	}
	client := llm.NewClient(cfg.LLMClientConfig(), observer)
	if c, ok := client.(io.Closer); ok {
		defer c.Close()
	}

	inspector := upload.NewInspector(afero.NewOsFs())
	agents := intelligence.NewAgents(client, inspector)
	deck := slides.Assembler{Company: cfg.Proposal.Company, Contact: cfg.Proposal.Contact}
	useCases := service.NewLogUseCaseObserver(log)

	app := &cli.App{
		Drafts:       service.NewDraftService(drafts, pipeline, useCases),
		History:      service.NewHistoryService(history, agents, cfg.AgentOptions(config.AgentQA), useCases),
		Orchestrator: workflow.NewOrchestrator(pipeline, agents, deck, drafts, cfg, log),
		Files:        inspector,
		Config:       cfg,
		Backend:      client,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// configPath picks --config out of args ahead of cobra, falling back to
// RFPILOT_CONFIG.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(config.EnvPrefix + "_CONFIG")
}
