package qasvc

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/qa/biz"
	"github.com/kart-io/resume-qa/internal/qa/handler"
	"github.com/kart-io/resume-qa/internal/qa/metrics"
	"github.com/kart-io/resume-qa/internal/qa/router"
	"github.com/kart-io/resume-qa/pkg/infra/middleware"
	"github.com/kart-io/resume-qa/pkg/infra/server"
	"github.com/kart-io/resume-qa/pkg/infra/server/transport/http"
	"github.com/kart-io/resume-qa/pkg/llm"
	qaerrors "github.com/kart-io/resume-qa/pkg/utils/errors"
)

// Server represents the resume QA server.
type Server struct {
	srv *server.Manager
	res *resources
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (s *Server, err error) {
	printBanner(cfg)

	// 1. 初始化日志
	if err := cfg.initLogger(Name); err != nil {
		return nil, err
	}
	logger.Info("Starting resume QA service...")

	res := &resources{}
	defer func() {
		if err != nil {
			_ = res.close(context.WithoutCancel(ctx))
		}
	}()

	// 2. 初始化链路追踪
	if err := cfg.initTracing(ctx, res, Name); err != nil {
		return nil, err
	}

	// 3. 初始化向量库、Embedding 与索引登记表
	if err := cfg.openResources(ctx, res); err != nil {
		return nil, err
	}

	// 4. 初始化对话模型
	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	qaMetrics := metrics.New()

	// 5. 索引简历文档
	if cfg.QAOptions.IndexOnStart {
		if err := cfg.indexDocuments(ctx, res, qaMetrics); err != nil {
			return nil, err
		}
	}

	// 6. 初始化流水线
	pipeline, err := cfg.newPipeline(chatProvider, res, qaMetrics)
	if err != nil {
		return nil, err
	}
	logger.Infow("QA pipeline initialized",
		"collection", cfg.QAOptions.Collection,
		"top_k", cfg.QAOptions.TopK,
	)

	// 7. 初始化 Handler 层
	askHandler := handler.NewAskHandler(pipeline, qaMetrics)

	// 8. 初始化服务器
	httpServer := http.NewServer(cfg.HTTPOptions,
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Tracing("/healthz", "/metrics"),
		middleware.Logger("/healthz", "/metrics"),
	)
	serverManager := server.NewManager(httpServer,
		server.WithShutdownTimeout(cfg.HTTPOptions.ShutdownTimeout),
	)

	// 9. 注册路由
	if err := router.Register(serverManager, &router.Config{
		AskHandler: askHandler,
		Metrics:    qaMetrics,
		StaticDir:  cfg.QAOptions.StaticDir,
	}); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	logger.Info("Resume QA service is ready")
	return &Server{srv: serverManager, res: res}, nil
}

// Run starts the server and blocks until ctx is cancelled or a termination
// signal arrives.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.res.close(closeCtx); err != nil {
			logger.Warnw("failed to release resources", "error", err.Error())
		}
	}()
	return s.srv.Run(ctx)
}

// indexDocuments 在监听端口之前索引文档目录，失败时服务不启动。
func (cfg *Config) indexDocuments(ctx context.Context, res *resources, m *metrics.QAMetrics) error {
	indexer, err := cfg.newIndexer(res)
	if err != nil {
		return fmt.Errorf("failed to initialize indexer: %w", err)
	}
	defer indexer.Close()

	stats, err := indexer.IndexDirectory(ctx, cfg.QAOptions.DocumentsDir)
	m.RecordIndexing(stats, err)
	if err != nil {
		return qaerrors.ErrQAIndexing.WithMessagef("failed to index %s", cfg.QAOptions.DocumentsDir).WithCause(err)
	}
	return nil
}

// newPipeline 组装 R/P/T/A 四个节点。
func (cfg *Config) newPipeline(chat llm.ChatProvider, res *resources, m *metrics.QAMetrics) (*biz.PipelineExecutor, error) {
	rewriteTmpl, err := biz.NewRewriteTemplate(cfg.QAOptions.RewriteTemplate)
	if err != nil {
		return nil, fmt.Errorf("rewrite template: %w", err)
	}
	answerTmpl, err := biz.NewAnswerTemplate(cfg.QAOptions.AnswerTemplate)
	if err != nil {
		return nil, fmt.Errorf("answer template: %w", err)
	}

	model := biz.NewChatModel(chat)
	retriever := biz.NewVectorRetriever(res.store, res.embed, &biz.RetrieverConfig{
		TopK:       cfg.QAOptions.TopK,
		Collection: cfg.QAOptions.Collection,
	})

	return biz.NewPipelineExecutor(
		biz.NewGenerationStage(string(biz.NodeRewrite), rewriteTmpl, model),
		biz.NewGenerationStage(string(biz.NodeAnswer), answerTmpl, model),
		retriever,
		biz.WithNodeObserver(m),
	), nil
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  Listen: %s\n", cfg.HTTPOptions.Addr)
	fmt.Printf("  Store: %s (%s)\n", cfg.QAOptions.Store, cfg.QAOptions.Collection)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
}
