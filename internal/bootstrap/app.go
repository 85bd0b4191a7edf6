package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"studydesk/internal/ai"
	"studydesk/internal/cache"
	"studydesk/internal/config"
	"studydesk/internal/model"
	mysqlClient "studydesk/internal/platform/mysql"
	rabbitmqClient "studydesk/internal/platform/rabbitmq"
	redisClient "studydesk/internal/platform/redis"
	"studydesk/internal/repository"
	"studydesk/internal/worker"
)

// App wires the process-wide handles: storage, caches, the queue and the
// inference client are constructed once here and passed by reference.
type App struct {
	Config          *config.Config
	MySQL           *gorm.DB
	Redis           *redis.Client
	MQConn          *amqp.Connection
	AI              *ai.Client
	SummarizeWorker *worker.SummarizeWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Session{}, &model.Document{}, &model.ChatMessage{}, &model.Question{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey)

	docRepo := repository.NewDocumentRepository(mysqlDB)
	stateCache := cache.NewStateCache(redisCli, time.Duration(cfg.Redis.StateTTLSeconds)*time.Second)
	summaryProvider := ai.NewSummaryProvider(aiClient, cfg.AI.SummaryModel, cfg.AI.SummaryMaxNewTokens)
	summarizeWorker := worker.NewSummarizeWorker(
		mqConn,
		docRepo,
		summaryProvider,
		stateCache,
		cfg.RabbitMQ.SummarizeQueue,
		cfg.AI.SummaryInputChars,
		time.Duration(cfg.AI.SummarizeTimeoutSeconds)*time.Second,
	)
	if err := summarizeWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start summarize worker failed: %w", err)
	}

	return &App{
		Config:          cfg,
		MySQL:           mysqlDB,
		Redis:           redisCli,
		MQConn:          mqConn,
		AI:              aiClient,
		SummarizeWorker: summarizeWorker,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.SummarizeWorker != nil {
		a.SummarizeWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
