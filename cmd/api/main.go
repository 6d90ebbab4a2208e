package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/aws"
	"github.com/formsight/formflow/internal/config"
	"github.com/formsight/formflow/internal/handlers"
	"github.com/formsight/formflow/internal/lifecycle"
	"github.com/formsight/formflow/internal/metrics"
	"github.com/formsight/formflow/internal/submissions"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	store := submissions.NewStore(clients.DynamoDB, cfg.SubmissionsTable, cfg.TTLWindow)
	publisher := aws.NewPublisher(clients.SQS, cfg.TasksQueueURL)
	m := metrics.NewPublisher(clients.CloudWatch, cfg.MetricsNamespace, logger)
	controller := lifecycle.NewController(store, publisher, nil, m, logger)

	r := setupRouter(handlers.HandlerConfig{Controller: controller, Logger: logger})

	// RUN_LOCAL=true serves plain HTTP for development.
	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.ListenAddr))
		if err := r.Run(cfg.ListenAddr); err != nil {
			logger.Fatal("local server failed", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
