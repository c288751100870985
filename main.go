package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/muhammadolammi/talentpipeline/internal/database"
	"github.com/muhammadolammi/talentpipeline/internal/hiring"
	"github.com/muhammadolammi/talentpipeline/internal/interview"
	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/provider"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/muhammadolammi/talentpipeline/internal/transcribe"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const recordsExchange = "pipeline_records"

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := LoadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmCfg := cfg.LLM
	llmCfg.AgentInstruction = hiring.SystemPrompt
	llm, err := provider.New(ctx, llmCfg)
	if err != nil {
		log.Fatalf("failed to create %s provider: %v", cfg.LLM.Provider, err)
	}
	exec := pipeline.NewExecutor(cfg.Retry, pipeline.WithLogger(log))

	var (
		sinks    recorder.Multi
		history  recorder.History
		sessions sessionReader
		queries  *database.Queries
		qaBlob   *recorder.Blob
		rabbit   *amqp.Connection
	)

	if cfg.DBURL != "" {
		db, err := sql.Open("postgres", cfg.DBURL)
		if err != nil {
			log.Fatalf("error opening db: %v", err)
		}
		defer db.Close()
		queries = database.New(db)
		pg := recorder.NewPostgres(queries)
		sinks = append(sinks, pg)
		history = pg
		sessions = queries
	} else {
		mem := &recorder.Memory{}
		sinks = append(sinks, mem)
		history = mem
		log.Warn("DB_URL not set, history is kept in memory")
	}

	if cfg.R2 != nil {
		client, err := newR2Client(ctx, *cfg.R2)
		if err != nil {
			log.Fatalf("error creating R2 client: %v", err)
		}
		qaBlob = &recorder.Blob{
			Client: client,
			Bucket: cfg.R2.Bucket,
			Prefix: "qa-history",
			Kinds:  map[string]bool{recorder.KindQASession: true},
		}
		sinks = append(sinks, qaBlob)
	}

	if cfg.RabbitMQURL != "" {
		rabbit, err = amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("error connecting to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		broker, err := recorder.NewBroker(rabbit, recordsExchange)
		if err != nil {
			log.Fatalf("error setting up record exchange: %v", err)
		}
		sinks = append(sinks, broker)
	}

	var store interview.Store = interview.NewMemoryStore()
	if cfg.Redis != nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, interview sessions kept in memory")
		} else {
			defer rdb.Close()
			store = interview.NewRedisStore(rdb)
		}
	}

	pipe := pipeline.New(exec, sinks, log)
	opts := []hiring.Option{}
	if t := newTranscriber(cfg, log); t != nil {
		opts = append(opts, hiring.WithTranscriber(t))
	}

	api := &apiConfig{
		hiring:     hiring.NewService(pipe, llm, log, opts...),
		interviews: interview.NewService(store, sinks, log),
		history:    history,
		qaBlob:     qaBlob,
		sessions:   sessions,
		llmName:    llm.Name(),
		log:        log,
	}

	if cfg.WorkerEnabled() {
		wc, err := newWorkerConfig(ctx, cfg, queries, rabbit, llm, exec, log)
		if err != nil {
			log.Fatalf("failed to set up resume workers: %v", err)
		}
		go func() {
			log.Infof("starting %d resume workers", cfg.WorkerCount)
			wc.StartConsumerWorkerPool(ctx, cfg.WorkerCount)
		}()
	}

	srv := &http.Server{
		Handler:           api.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       3 * time.Minute,
		WriteTimeout:      3 * time.Minute,
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("", cfg.Port))
	if err != nil {
		log.Fatalf("failed to listen on port %s: %v", cfg.Port, err)
	}

	log.WithFields(logrus.Fields{"port": cfg.Port, "provider": llm.Name()}).Info("server listening")
	if err := serve(ctx, srv, ln, shutdownGrace, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// newTranscriber returns nil when no speech backend is configured; audio
// uploads are rejected in that case.
func newTranscriber(cfg Config, log logrus.FieldLogger) transcribe.Transcriber {
	var tc transcribe.Config
	switch {
	case cfg.LLM.Provider == provider.NameAzure && cfg.LLM.AzureAPIKey != "" && cfg.LLM.AzureEndpoint != "":
		tc = transcribe.Config{
			APIKey:  cfg.LLM.AzureAPIKey,
			BaseURL: cfg.LLM.AzureEndpoint,
			Azure:   true,
			Model:   cfg.TranscribeModel,
		}
	case cfg.LLM.OpenAIAPIKey != "":
		tc = transcribe.Config{
			APIKey:  cfg.LLM.OpenAIAPIKey,
			BaseURL: cfg.LLM.OpenAIBaseURL,
			Model:   cfg.TranscribeModel,
		}
	default:
		log.Info("no transcription backend configured, audio uploads disabled")
		return nil
	}
	w, err := transcribe.NewWhisper(tc)
	if err != nil {
		log.WithError(err).Warn("transcription disabled")
		return nil
	}
	return w
}

// newWorkerConfig wires the batch resume analysis workers. They use the ADK
// agent with the resume instruction when a Google key is present, otherwise
// the main provider with that instruction as the system prompt.
func newWorkerConfig(ctx context.Context, cfg Config, queries *database.Queries, rabbit *amqp.Connection,
	llm provider.Provider, exec *pipeline.Executor, log logrus.FieldLogger) (*WorkerConfig, error) {
	files, err := newR2Client(ctx, *cfg.R2)
	if err != nil {
		return nil, err
	}
	wc := &WorkerConfig{
		DB:          queries,
		Files:       files,
		Bucket:      cfg.R2.Bucket,
		Publisher:   amqpPublisher{conn: rabbit},
		RabbitMQURL: cfg.RabbitMQURL,
		LLM:         llm,
		System:      hiring.ResumeAnalysisInstruction,
		Exec:        exec,
		Log:         log.WithField("component", "worker"),
	}
	if cfg.LLM.GoogleAPIKey != "" {
		agentCfg := cfg.LLM
		agentCfg.Provider = provider.NameAgent
		agentCfg.AgentName = "resume analyzer"
		agentCfg.AgentInstruction = hiring.ResumeAnalysisInstruction
		analyzer, err := provider.New(ctx, agentCfg)
		if err != nil {
			return nil, err
		}
		wc.LLM = analyzer
		wc.System = ""
	}
	return wc, nil
}
