package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"

	"github.com/jamjam-ai/jamjam/internal/config"
	"github.com/jamjam-ai/jamjam/internal/handler"
	chatHandler "github.com/jamjam-ai/jamjam/internal/handler/chat"
	streamHandler "github.com/jamjam-ai/jamjam/internal/handler/stream"
	"github.com/jamjam-ai/jamjam/internal/service/agent"
	emotionservice "github.com/jamjam-ai/jamjam/internal/service/emotion"
	memoryservice "github.com/jamjam-ai/jamjam/internal/service/memory"
	summaryservice "github.com/jamjam-ai/jamjam/internal/service/summary"
	"github.com/jamjam-ai/jamjam/internal/service/tools"
	"github.com/jamjam-ai/jamjam/internal/session"
	"github.com/jamjam-ai/jamjam/internal/store/transcript"
	"github.com/jamjam-ai/jamjam/internal/store/vector"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Relational transcript store. Missing DATABASE_URL disables summaries
	// and window expansion but the agent still answers.
	var transcripts *transcript.Store
	if cfg.Database.Enabled() {
		transcripts, err = transcript.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Printf("warning: failed to connect transcript store: %v", err)
			transcripts = nil
		} else {
			defer transcripts.Close()
			log.Println("transcript store initialized")
		}
	} else {
		log.Println("DATABASE_URL not set, transcript store disabled")
	}

	// Similarity index over past utterances.
	var memoryIndex *vector.Store
	if cfg.Vector.Enabled() {
		embed := chromem.NewEmbeddingFuncOpenAICompat(
			cfg.Vector.EmbeddingBaseURL,
			cfg.Vector.EmbeddingAPIKey,
			cfg.Vector.EmbeddingModel,
			nil,
		)
		memoryIndex, err = vector.New(cfg.Vector.DataDir, embed)
		if err != nil {
			log.Printf("warning: failed to open vector store: %v", err)
			memoryIndex = nil
		} else {
			log.Println("vector memory initialized")
		}
	} else {
		log.Println("embedding credentials not set, vector memory disabled")
	}

	// Completion model. Without it the service still starts; the chat
	// endpoint answers 503 until credentials arrive.
	var orchestrator *agent.Orchestrator
	var classifier chatHandler.Classifier

	if cfg.AI.Enabled() {
		llm, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Fatalf("failed to initialize chat model: %v", err)
		}

		emotionSvc, err := emotionservice.NewService(ctx, llm, emotionservice.Config{Enabled: cfg.Agent.EmotionLLM})
		if err != nil {
			log.Fatalf("failed to initialize emotion service: %v", err)
		}
		classifier = emotionSvc

		var reader summaryservice.Reader
		if transcripts != nil {
			reader = transcripts
		}
		summarySvc, err := summaryservice.NewService(ctx, llm, reader)
		if err != nil {
			log.Fatalf("failed to initialize summary service: %v", err)
		}

		var index memoryservice.Index
		if memoryIndex != nil {
			index = memoryIndex
		}
		var windows memoryservice.WindowReader
		if transcripts != nil {
			windows = transcripts
		}
		memorySvc := memoryservice.NewService(index, windows, cfg.Agent.RecallHints)

		registry, err := tools.NewRegistry(ctx,
			tools.NewClassifyEmotion(emotionSvc),
			tools.NewRecallSearch(memorySvc, cfg.Agent.RecallWindowMin),
			tools.NewSummarize(summarySvc),
		)
		if err != nil {
			log.Fatalf("failed to build tool registry: %v", err)
		}

		infos, err := registry.Infos(ctx)
		if err != nil {
			log.Fatalf("failed to collect tool infos: %v", err)
		}
		if err := llm.BindTools(infos); err != nil {
			log.Fatalf("failed to bind tools: %v", err)
		}

		orchestrator = agent.New(llm, registry, memorySvc, summarySvc, emotionSvc, session.NewStore(), cfg.Agent)
		log.Println("chat agent initialized")
	} else {
		log.Println("ark credentials not configured, chat agent disabled")
		heuristic, err := emotionservice.NewService(ctx, nil, emotionservice.Config{})
		if err == nil {
			classifier = heuristic
		}
	}

	var runner chatHandler.TurnRunner
	var saver chatHandler.TranscriptSaver
	var indexer chatHandler.MemoryIndexer
	if orchestrator != nil {
		runner = orchestrator
	}
	if transcripts != nil {
		saver = transcripts
	}
	if memoryIndex != nil {
		indexer = memoryIndex
	}

	chatH := chatHandler.New(runner, saver, indexer, classifier)

	var streamH *streamHandler.Handler
	if orchestrator != nil {
		streamH = streamHandler.New(orchestrator, classifier)
	}

	router := handler.NewRouter(chatH, streamH)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("jamjam backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
