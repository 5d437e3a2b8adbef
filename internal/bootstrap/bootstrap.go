package bootstrap

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cgint/simple-knowledge-pool-ai/internal/config"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/usecase"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/convert/mhtml"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/llm/gemini"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/queue/nats"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/render/htmlpdf"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/repository/jsonfile"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/resilience"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/storage/localfs"
	"github.com/cgint/simple-knowledge-pool-ai/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Storage  ports.ObjectStorage
	Tags     ports.TagRepository
	Sessions ports.SessionRepository
	Queue    ports.MessageQueue

	Uploader  ports.DocumentUploader
	Chat      ports.ChatService
	Extractor ports.DocumentExtractor

	Metrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(cfg config.Config, service string) (*App, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	tags, err := jsonfile.NewTagStore(filepath.Join(cfg.DataPath, "file-tags.json"))
	if err != nil {
		return nil, fmt.Errorf("init tag store: %w", err)
	}
	sessions, err := jsonfile.NewSessionStore(filepath.Join(cfg.DataPath, "chat-sessions"))
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	categories, err := config.LoadVocabulary(cfg.CategoryVocabPath)
	if err != nil {
		return nil, fmt.Errorf("load category vocabulary: %w", err)
	}

	serverMetrics := metrics.NewHTTPServerMetrics(service)

	llmClient := gemini.New(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		AttemptTimeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		RatePerSecond:  cfg.LLMRatePerSecond,
		Burst:          cfg.LLMBurst,
		Policy: resilience.Policy{
			MaxAttempts:    cfg.LLMMaxAttempts,
			BreakerEnabled: true,
		},
		Recorder: serverMetrics,
	})
	chatter := gemini.NewChatter(llmClient)
	analyzer := gemini.NewAnalyzer(llmClient, categories)

	converter := mhtml.NewConverter(cfg.MHTConvertCommand)
	renderer := htmlpdf.New(cfg.PDFRenderCommand)

	var queue ports.MessageQueue
	closeFn := func() {}
	if cfg.QueueEnabled {
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultPolicy()),
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
		closeFn = natsQueue.Close
	}

	builder := usecase.NewContextBuilder(storage, tags)

	return &App{
		Config: cfg,

		Storage:  storage,
		Tags:     tags,
		Sessions: sessions,
		Queue:    queue,

		Uploader:  usecase.NewUploader(storage, tags, converter, renderer, queue, serverMetrics),
		Chat:      usecase.NewChat(builder, chatter),
		Extractor: usecase.NewExtractor(storage, tags, analyzer, serverMetrics),

		Metrics: serverMetrics,

		closeFn: closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
