package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"ai-workspace/internal/agent"
	"ai-workspace/internal/chunker"
	"ai-workspace/internal/config"
	"ai-workspace/internal/db"
	"ai-workspace/internal/embedding"
	"ai-workspace/internal/extractor"
	"ai-workspace/internal/helper"
	"ai-workspace/internal/ingest"
	"ai-workspace/internal/llmservice"
	"ai-workspace/internal/vectorindex"
	"ai-workspace/internal/worker"
	"ai-workspace/internal/workspace"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	filePath := flag.String("file", "", "Path to a document file to ingest")
	title := flag.String("title", "", "Display title for the document")
	userID := flag.String("user", "", "Acting user id")
	query := flag.String("query", "", "Message for a chat turn")
	conversationID := flag.String("conversation", "", "Conversation id to continue")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Please provide the acting user with the -user flag")
	}
	if (*filePath == "") == (*query == "") {
		log.Fatal().Msg("Please provide either a document file using the -file flag or a message using the -query flag, but not both")
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Msg("Effective RAG settings:")
	helper.PrettyPrint(cfg.RAG)

	ctx := context.Background()
	ws, queue, cleanup := buildWorkspace(ctx, cfg)
	defer cleanup()

	if *filePath != "" {
		ingestDocument(ctx, ws, queue, *userID, *filePath, *title)
		return
	}
	runChatTurn(ctx, ws, *userID, *query, *conversationID)
}

func buildWorkspace(ctx context.Context, cfg *config.Config) (*workspace.Workspace, *worker.Queue, func()) {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	bunDB := db.NewDB(sqldb, cfg.Database.Debug)
	if err := db.InitDB(ctx, bunDB); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}

	documents := db.NewDocuments(bunDB)
	tasks := db.NewTasks(bunDB)
	conversations := db.NewConversations(bunDB)

	index, err := vectorindex.New(&cfg.Vector)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	chatModel, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	pipeline := ingest.NewPipeline(
		documents,
		index,
		embedder,
		chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		extractor.Extract,
	)

	queue, err := worker.NewQueue(cfg.Worker.Workers, cfg.Worker.MaxRetries, cfg.Worker.RetryDelay)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating worker queue")
	}

	newAgent := agentFactory(chatModel, embedder, index, tasks, documents, cfg.RAG.SearchResults)
	ws := workspace.New(documents, conversations, pipeline, queue, newAgent, cfg.RAG.HistoryWindow)

	cleanup := func() {
		queue.Release()
		if err := bunDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}
	return ws, queue, cleanup
}

func agentFactory(chatModel llms.Model, embedder embeddings.Embedder, index *vectorindex.Index, tasks *db.Tasks, documents *db.Documents, searchResults int) workspace.AgentFactory {
	return func(userID string) workspace.Chatter {
		tools := agent.NewRegistry(userID, agent.Deps{
			Embedder:      embedder,
			Searcher:      index,
			Tasks:         tasks,
			Documents:     documents,
			SearchResults: searchResults,
		})
		return agent.New(chatModel, tools)
	}
}

func ingestDocument(ctx context.Context, ws *workspace.Workspace, queue *worker.Queue, userID, filePath, title string) {
	docID, err := ws.SubmitDocument(ctx, userID, filePath, title)
	if err != nil {
		log.Fatal().Err(err).Msg("Error submitting document")
	}
	// The CLI is one-shot, so block until the background run finishes.
	queue.Wait()
	fmt.Printf("Document %s submitted\n", docID)
}

func runChatTurn(ctx context.Context, ws *workspace.Workspace, userID, message, conversationID string) {
	reply, convID, err := ws.RunTurn(ctx, userID, message, conversationID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error running chat turn")
	}

	log.Info().Str("conversation_id", convID).Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", reply)
}
