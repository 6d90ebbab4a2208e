package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/aws"
	"github.com/formsight/formflow/internal/config"
	"github.com/formsight/formflow/internal/lifecycle"
	"github.com/formsight/formflow/internal/metrics"
	"github.com/formsight/formflow/internal/providers"
	"github.com/formsight/formflow/internal/submissions"
)

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

	ctx := context.Background()
	clients, err := aws.NewClients(ctx)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	registry, err := providers.NewRegistryFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init providers", zap.Error(err))
	}
	generator, err := registry.Get(cfg.Provider)
	if err != nil {
		logger.Fatal("selected provider unavailable", zap.Error(err))
	}

	store := submissions.NewStore(clients.DynamoDB, cfg.SubmissionsTable, cfg.TTLWindow)
	m := metrics.NewPublisher(clients.CloudWatch, cfg.MetricsNamespace, logger)
	controller := lifecycle.NewController(store, nil, generator, m, logger)
	processor := NewProcessor(controller, logger)

	// RUN_LOCAL=true processes one simulated SQS event and exits, for
	// development without a Lambda runtime.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"submission_id":"local-sub-1","variant":"client","prompt":"local test prompt"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local", Body: body}},
		}
		if err := processor.Handle(ctx, event); err != nil {
			logger.Fatal("local event failed", zap.Error(err))
		}
		return
	}

	lambda.Start(processor.Handle)
}
