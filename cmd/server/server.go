package server

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamerjackson/extractra/api"
	"github.com/dreamerjackson/extractra/crawl"
	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/extract/pipeline"
	"github.com/dreamerjackson/extractra/generator"
	"github.com/dreamerjackson/extractra/limiter"
	"github.com/dreamerjackson/extractra/llm"
	"github.com/dreamerjackson/extractra/log"
	"github.com/dreamerjackson/extractra/proxy"
	"github.com/dreamerjackson/extractra/sqlstorage"
	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"github.com/spf13/cobra"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "run extraction server.",
	Long:  "run extraction server.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		Run()
	},
}

func init() {
	ServerCmd.Flags().StringVar(
		&HTTPListenAddress, "http", ":8080", "set HTTP listen address")

	ServerCmd.Flags().StringVar(
		&PProfListenAddress, "pprof", ":9981", "set pprof address")

	ServerCmd.Flags().StringVar(
		&configFile, "config", "config.toml", "set config file path")

	ServerCmd.Flags().StringVar(
		&podIP, "podip", "", "set pod ip for id generation")
}

var HTTPListenAddress string
var PProfListenAddress string
var configFile string
var podIP string

func Run() {
	go func() {
		if err := http.ListenAndServe(PProfListenAddress, nil); err != nil {
			panic(err)
		}
	}()

	// load config
	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		panic(err)
	}
	if err := cfg.Load(file.NewSource(
		file.WithPath(configFile),
		source.WithEncoder(enc),
	)); err != nil {
		panic(err)
	}

	// log
	logText := cfg.Get("logLevel").String("INFO")
	logLevel, err := zapcore.ParseLevel(logText)
	if err != nil {
		panic(err)
	}
	plugin := log.NewStdoutPlugin(logLevel)
	logger := log.NewLogger(plugin)
	logger.Info("log init end")

	zap.ReplaceGlobals(logger)

	// fetcher
	proxyURLs := cfg.Get("fetcher", "proxy").StringSlice([]string{})
	fetchTimeout := cfg.Get("fetcher", "timeout").Int(30000)
	rendering := cfg.Get("fetcher", "rendering").Bool(false)
	robots := cfg.Get("fetcher", "robots").Bool(true)
	maxParallel := cfg.Get("fetcher", "maxParallel").Int(5)

	var p proxy.Func
	if len(proxyURLs) > 0 {
		if p, err = proxy.RoundRobinSwitcher(proxyURLs...); err != nil {
			logger.Error("RoundRobinSwitcher failed", zap.Error(err))
		}
	}

	fetchLimit := limiter.Multi(
		rate.NewLimiter(limiter.Per(cfg.Get("fetcher", "limitPerSecond").Int(2), 1*time.Second), 1),
		rate.NewLimiter(limiter.Per(cfg.Get("fetcher", "limitPerMinute").Int(60), 60*time.Second), 20),
	)

	fetcher := crawl.NewService(
		crawl.WithLogger(logger.Named("crawl")),
		crawl.WithTimeout(time.Duration(fetchTimeout)*time.Millisecond),
		crawl.WithProxy(p),
		crawl.WithRendering(rendering),
		crawl.WithRobots(robots),
		crawl.WithMaxParallel(maxParallel),
		crawl.WithLimiter(fetchLimit),
	)

	// llm
	llmTimeout := cfg.Get("llm", "timeout").Int(60000)
	llmLimit := limiter.NewBucket(
		time.Second/time.Duration(cfg.Get("llm", "limitPerSecond").Int(5)),
		int64(cfg.Get("llm", "burst").Int(10)),
	)

	svc, err := llm.NewClient(
		llm.WithLogger(logger.Named("llm")),
		llm.WithEndpoint(cfg.Get("llm", "endpoint").String("")),
		llm.WithAPIKey(os.Getenv("LLM_API_KEY")),
		llm.WithModel(cfg.Get("llm", "model").String("gemini-2.0-flash")),
		llm.WithTimeout(time.Duration(llmTimeout)*time.Millisecond),
		llm.WithLimiter(llmLimit),
		llm.WithRetries(cfg.Get("llm", "retries").Int(1)),
	)
	if err != nil {
		logger.Error("create llm client failed", zap.Error(err))
		panic(err)
	}

	// storage
	var storage extract.DataRepository
	storeType := cfg.Get("storage", "type").String("empty")
	switch storeType {
	case "mysql":
		sqlURL := cfg.Get("storage", "sqlURL").String("")
		if storage, err = sqlstorage.New(
			sqlstorage.WithSQLURL(sqlURL),
			sqlstorage.WithLogger(logger.Named("sqlDB")),
			sqlstorage.WithBatchCount(cfg.Get("storage", "batchCount").Int(100)),
		); err != nil {
			logger.Error("create sqlstorage failed", zap.Error(err))
			panic(err)
		}
		logger.Info("start mysql storage")
	default:
		storage = &extract.EmptyDataRepository{}
		logger.Info("start empty storage")
	}

	// task store
	store, err := extract.NewTaskStore(generator.NodeID(podIP))
	if err != nil {
		logger.Error("create task store failed", zap.Error(err))
		panic(err)
	}

	popts := []pipeline.Option{
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithStore(store),
		pipeline.WithFetcher(fetcher),
		pipeline.WithLLM(svc),
		pipeline.WithStorage(storage),
		pipeline.WithWorkCount(cfg.Get("task", "workCount").Int(5)),
		pipeline.WithPageTimeout(time.Duration(cfg.Get("task", "pageTimeout").Int(30000)) * time.Millisecond),
		pipeline.WithDiscoveryTimeout(time.Duration(cfg.Get("task", "discoveryTimeout").Int(60000)) * time.Millisecond),
	}
	if cfg.Get("task", "reconciler").String("rule") == "llm" {
		popts = append(popts, pipeline.WithReconciler(pipeline.NewLLMReconciler(svc)))
	}

	orchestrator, err := pipeline.NewOrchestrator(popts...)
	if err != nil {
		logger.Error("create orchestrator failed", zap.Error(err))
		panic(err)
	}

	// http api
	apiOpts := []api.Option{
		api.WithLogger(logger.Named("api")),
		api.WithAddr(HTTPListenAddress),
	}
	if n := cfg.Get("server", "requestsPerSecond").Int(0); n > 0 {
		apiOpts = append(apiOpts,
			api.WithThrottle(limiter.NewBucket(time.Second/time.Duration(n), int64(n))))
	}

	srv, err := api.NewServer(orchestrator, store, apiOpts...)
	if err != nil {
		logger.Error("create api server failed", zap.Error(err))
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server stop", zap.Error(err))
	}
}
