// Package main is the Nyaya CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/answer"
	"github.com/nyayalabs/nyaya/internal/cli"
	"github.com/nyayalabs/nyaya/internal/config"
	"github.com/nyayalabs/nyaya/internal/embedding"
	"github.com/nyayalabs/nyaya/internal/extract"
	"github.com/nyayalabs/nyaya/internal/ingest"
	"github.com/nyayalabs/nyaya/internal/keyword"
	"github.com/nyayalabs/nyaya/internal/llm"
	"github.com/nyayalabs/nyaya/internal/lookup"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/segment"
	"github.com/nyayalabs/nyaya/internal/server"
	"github.com/nyayalabs/nyaya/internal/session"
	"github.com/nyayalabs/nyaya/internal/storage"
	"github.com/nyayalabs/nyaya/internal/vector"
	"github.com/nyayalabs/nyaya/internal/watcher"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

var version = "dev"

// resolveConfigPath picks the config file when -config is not given:
// ./nyaya.yaml in the working directory first (development), then the
// per-user config. Returns the path even if neither exists so that error
// messages name a concrete file.
func resolveConfigPath() string {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, "nyaya.yaml")
		if _, statErr := os.Stat(local); statErr == nil {
			return local
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "nyaya", "config.yaml")
	}
	return "nyaya.yaml"
}

// loadConfig loads config from path, or from the default search path when
// path is empty. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = resolveConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "init":
		runInit()
	case "ingest":
		runIngest()
	case "serve":
		runServe()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "reset":
		runReset()
	case "version", "--version", "-v":
		fmt.Printf("nyaya version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: ./nyaya.yaml)")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	path := *configPath
	if path == "" {
		path = "nyaya.yaml"
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Printf("Config already exists at %s (use --force to overwrite)\n", path)
		os.Exit(1)
	}

	var cfg config.Config
	config.ApplyDefaults(&cfg)
	// Written literally; config.Load expands ${OPENAI_API_KEY} from the
	// environment, so the key never lands in the file.
	cfg.Embedding.APIKey = "${OPENAI_API_KEY}"
	cfg.LLM.APIKey = "${OPENAI_API_KEY}"

	if err := config.Save(path, &cfg); err != nil {
		fmt.Printf("Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Set OPENAI_API_KEY in the environment, adjust paths, then run: nyaya ingest")
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	dir := cfg.Corpus.Directory
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Loader.LoadDirectory(context.Background(), dir)
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d file(s), %d passage(s) from %s\n", result.Files, result.Chunks, dir)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, session sweeps, file events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Load the persisted vector index if one exists. Without it the engine
	// answers with not-ready responses until an ingest runs.
	if err := components.Vector.Init(context.Background(), nil); err != nil {
		logger.Warn("no persisted vector index; run 'nyaya ingest' to load the corpus",
			zap.Error(err))
	}

	var watchCancel context.CancelFunc
	if cfg.Corpus.Watch {
		loader := components.Loader
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Corpus.Directory,
			cfg.Corpus.Extensions,
			func(path string) {
				if err := loader.ReloadFile(context.Background(), path); err != nil {
					logger.Warn("watch reload failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := loader.RemoveFile(context.Background(), path); err != nil {
					logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		var watchCtx context.Context
		watchCtx, watchCancel = context.WithCancel(context.Background())
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Sessions,
		components.Lookup,
		components.Storage,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchCancel != nil {
		watchCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "nyaya ask \"question\" -output json" would otherwise leave -output unparsed.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: nyaya ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  nyaya ask What is the punishment for theft?
  nyaya ask "What does Section 103 say?"
  nyaya ask --session 4f7c... "And what about abetment?"   # continue a server-side session
  nyaya ask --output json "Define criminal conspiracy"     # structured JSON for other apps
  nyaya ask --server "" "What is theft?"                   # direct storage, server not running
`)
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	sessionID := fs.String("session", "", "session ID to continue a conversation (server mode only)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids Bleve/SQLite
		// lock conflicts and keeps session history server-side).
		resp, err := askViaHTTP(*serverURL, question, *sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running). One-shot: the
	// session exists only for this process.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Vector.Init(ctx, nil); err != nil {
		fmt.Fprintln(os.Stderr, "No indexed corpus found; run 'nyaya ingest' first.")
		os.Exit(1)
	}

	id := components.Sessions.Create()
	resp := components.Engine.ProcessQuery(ctx, question, id)
	components.Sessions.RecordTurn(id, question, resp)
	if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question, sessionID string) (*models.QueryResponse, error) {
	body, err := json.Marshal(models.AskRequest{Question: question, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	var st cli.StatusInfo
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		st = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		// Index load failure just means status reports not_initialized.
		_ = components.Vector.Init(context.Background(), nil)
		es := components.Engine.Status()
		st = cli.StatusInfo{
			RAGEngine:       es.RAGEngine,
			VectorStore:     es.VectorStore,
			LLMModel:        es.LLMModel,
			DocumentsLoaded: es.VectorStore.DocumentCount > 0,
			ReadyForQueries: es.RAGEngine == vector.StatusInitialized,
			ActiveSessions:  components.Sessions.Count(),
			Timestamp:       es.Timestamp,
		}
	}

	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*cli.StatusInfo, error) {
	resp, err := http.Get(serverURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Success bool           `json:"success"`
		Status  cli.StatusInfo `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out.Status, nil
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if !*yes {
		fmt.Print("This removes all indexed documents, passages, and vectors. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}

	if err := components.Vector.Reset(context.Background()); err != nil {
		components.Close()
		fmt.Printf("Reset failed: %v\n", err)
		os.Exit(1)
	}
	// The keyword index has no in-place reset; close it and drop the
	// directory so the next run recreates an empty index.
	components.Close()
	if err := os.RemoveAll(cfg.Storage.KeywordIndexPath); err != nil {
		fmt.Printf("Failed to remove keyword index: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Indexes reset. Run 'nyaya ingest' to reload the corpus.")
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Vector   *vector.Store
	Keyword  keyword.Index
	LLM      llm.Client
	Sessions *session.Store
	Engine   *answer.Engine
	Lookup   *lookup.Engine
	Loader   *ingest.Loader
}

func (c *Components) Close() {
	if c.Vector != nil {
		_ = c.Vector.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	case "openai", "":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("embedding.api_key is required (set OPENAI_API_KEY)")
		}
		embedder = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			CacheSize:  cfg.Embedding.CacheSize,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}

	var llmClient llm.Client
	switch cfg.LLM.Provider {
	case "mock":
		llmClient = llm.NewMockClient("This is a mock answer; configure an LLM provider for real consultations.")
	case "openai", "":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required (set OPENAI_API_KEY)")
		}
		llmClient = llm.NewOpenAIClient(llm.OpenAIConfig{
			Model:       cfg.LLM.Model,
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}

	vectorStore := vector.NewStore(vector.StoreConfig{
		CollectionName: cfg.Retrieval.CollectionName,
		PersistDir:     cfg.Storage.VectorIndexPath,
		EmbeddingModel: cfg.Embedding.Model,
	}, embedder, store, logger)

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	sessions := session.NewStore(cfg.Session.MaxSessions, logger)
	engine := answer.NewEngine(answer.Config{
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		Model:          cfg.LLM.Model,
	}, vectorStore, llmClient, sessions, logger)

	lookupEngine := lookup.NewEngine(store, vectorStore, keywordIndex, cfg.Lookup, logger)

	segmenter := segment.NewSegmenter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	loader := ingest.NewLoader(store, vectorStore, keywordIndex, segmenter,
		extract.NewExtractor(), cfg.Corpus.Extensions, logger)

	return &Components{
		Storage:  store,
		Embedder: embedder,
		Vector:   vectorStore,
		Keyword:  keywordIndex,
		LLM:      llmClient,
		Sessions: sessions,
		Engine:   engine,
		Lookup:   lookupEngine,
		Loader:   loader,
	}, nil
}

func printUsage() {
	fmt.Println(`nyaya - Legal consultation service over the BNS corpus

Usage:
  nyaya init [flags]              Write a starter config file
  nyaya ingest [flags] [dir]      Load the legal corpus into the indexes
  nyaya serve [flags]             Start the HTTP API server
  nyaya ask [flags] <question>    Ask a one-shot legal question
  nyaya status [flags]            Show engine/index status
  nyaya reset [flags]             Wipe all indexed data
  nyaya version                   Show version
  nyaya help                      Show this help

Init Flags:
  --config string    Where to write the config (default: ./nyaya.yaml)
  --force            Overwrite an existing config file

Ingest Flags:
  --config string    Config file path
  [dir]              Corpus directory (default: corpus.directory from config)

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging (requests, session sweeps, file events)

Ask Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --session string   Session ID to continue a conversation (server mode only)
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Reset Flags:
  --config string    Config file path
  --yes              Skip the confirmation prompt

Config search path: ./nyaya.yaml, then ~/.config/nyaya/config.yaml.

Examples:
  nyaya init
  nyaya ingest ./documents
  nyaya serve
  nyaya ask "What is the punishment for theft?"
  nyaya ask --output json "What does Section 103 say?"
  nyaya status
  nyaya reset --yes`)
}
