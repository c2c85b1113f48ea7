package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/homepanel/api/internal/auth"
	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/config"
	"github.com/homepanel/api/internal/jobstore"
	"github.com/homepanel/api/internal/logging"
	"github.com/homepanel/api/internal/server"
	"github.com/homepanel/api/internal/service"
	ws "github.com/homepanel/api/internal/websocket"
	"github.com/homepanel/api/internal/worker"
	"github.com/homepanel/api/internal/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logging.New(cfg.Server.LogLevel, cfg.Server.Env, os.Stderr)
	if logging.IsDebug(cfg.Server.LogLevel) {
		log.Debug("Debug logging enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis backs rate limiting and the reboot queue; both degrade without it
	var (
		redisClient *redis.Client
		redisOpt    asynq.RedisClientOpt
		enqueuer    service.TaskEnqueuer
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis not available")
		}

		redisOpt = asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		enqueuer = asynqClient
	} else {
		log.Info("Redis disabled, rate limiting off and reboots run in-process")
	}

	guard, err := workspace.NewGuard(cfg.Workspace.Root, cfg.Workspace.ResolveSymlinks)
	if err != nil {
		log.WithError(err).Fatal("Invalid workspace root")
	}

	hub := ws.NewHub(log)
	go hub.Run()

	repo := jobstore.NewFileRepository(cfg.JobStore.Path)
	store := jobstore.NewStore(repo)

	if cfg.JobStore.Watch {
		watcher := jobstore.NewWatcher(repo.Path(), 250*time.Millisecond, log, hub.BroadcastStoreChanged)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.WithError(err).Warn("Job store watcher stopped")
			}
		}()
	}

	// R2 is optional; backups answer 503 without it
	var objectStore client.ObjectStore
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.WithError(err).Warn("R2 client not initialized")
		} else {
			objectStore = r2Client
		}
	} else {
		log.Info("R2 storage not configured, backups disabled")
	}

	llmClient := client.NewLLMClient(&cfg.LLM)
	launcher := client.NewCommandLauncher(cfg.Reboot.Command, cfg.Reboot.Args...)

	// Zitadel JWKS verifier is optional and falls back to legacy JWT
	var tokenVerifier auth.TokenVerifier
	if cfg.Zitadel.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(&cfg.Zitadel)
		if err != nil {
			log.WithError(err).Warn("JWKS verifier not initialized")
		} else {
			defer jwksVerifier.Close()
			tokenVerifier = jwksVerifier
		}
	}

	cronService := service.NewCronService(store, hub, log)
	backupService := service.NewBackupService(store, objectStore, log)
	workspaceService := service.NewWorkspaceService(guard, log)
	systemService := service.NewSystemService(enqueuer, launcher, time.Duration(cfg.Reboot.DelaySeconds)*time.Second, log)
	modelService := service.NewModelService(llmClient, log)

	app := server.NewApp(server.Deps{
		Config:    cfg,
		Log:       log,
		Redis:     redisClient,
		Verifier:  tokenVerifier,
		Hub:       hub,
		Cron:      cronService,
		Backup:    backupService,
		Workspace: workspaceService,
		System:    systemService,
		Models:    modelService,
		Services: map[string]bool{
			"redis":  redisClient != nil,
			"r2":     objectStore != nil,
			"llm":    llmClient.IsConfigured(),
			"auth":   tokenVerifier != nil || cfg.JWT.Secret != "" || cfg.Gateway.Enabled,
			"watch":  cfg.JobStore.Watch,
			"reboot": cfg.Reboot.Command != "",
		},
	})

	var workerServer *asynq.Server
	if cfg.Redis.Enabled {
		workerServer = newWorkerServer(redisOpt, log)
		mux := asynq.NewServeMux()
		mux.HandleFunc(service.TaskTypeReboot, worker.NewRebootWorker(launcher, log).ProcessTask)
		go func() {
			if err := workerServer.Run(mux); err != nil {
				log.WithError(err).Error("Asynq worker error")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Server shutdown error")
		}
		if workerServer != nil {
			workerServer.Shutdown()
		}
	}()

	addr := ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}

func newWorkerServer(opt asynq.RedisClientOpt, log *logrus.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	switch log.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		asynqLogLevel = asynq.DebugLevel
	case logrus.WarnLevel:
		asynqLogLevel = asynq.WarnLevel
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		asynqLogLevel = asynq.ErrorLevel
	}

	return asynq.NewServer(opt, asynq.Config{
		// Reboots are one at a time
		Concurrency: 1,
		Queues: map[string]int{
			service.QueueSystem: 1,
		},
		Logger:   log,
		LogLevel: asynqLogLevel,
	})
}
