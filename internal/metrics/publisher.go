package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/aws"
)

// Publisher pushes operational metrics to CloudWatch. Publishing is
// best-effort: a metrics failure is logged and never propagated, so it
// cannot fail a webhook or a generation task. A nil *Publisher is valid
// and drops everything.
type Publisher struct {
	client    aws.CloudWatchAPI
	namespace string
	logger    *zap.Logger
}

func NewPublisher(client aws.CloudWatchAPI, namespace string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// CountAccept records one webhook accept outcome (started, duplicate,
// store_error, dispatch_error).
func (p *Publisher) CountAccept(ctx context.Context, outcome string) {
	if p == nil {
		return
	}
	p.put(ctx, cwtypes.MetricDatum{
		MetricName: strptr("WebhookAccept"),
		Value:      float64ptr(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: strptr("Outcome"), Value: strptr(outcome)},
		},
	})
}

// ObserveGeneration records one variant generation: its outcome (success,
// empty, provider_error, store_error, skipped) and wall-clock duration.
func (p *Publisher) ObserveGeneration(ctx context.Context, provider, variant, outcome string, elapsed time.Duration) {
	if p == nil {
		return
	}
	dims := []cwtypes.Dimension{
		{Name: strptr("Provider"), Value: strptr(provider)},
		{Name: strptr("Variant"), Value: strptr(variant)},
		{Name: strptr("Outcome"), Value: strptr(outcome)},
	}
	p.put(ctx,
		cwtypes.MetricDatum{
			MetricName: strptr("Generation"),
			Value:      float64ptr(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: strptr("GenerationDuration"),
			Value:      float64ptr(float64(elapsed.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (p *Publisher) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	if p.client == nil {
		return
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  &p.namespace,
		MetricData: data,
	}
	if _, err := p.client.PutMetricData(ctx, input); err != nil {
		p.logger.Warn("metrics publish failed", zap.Error(err))
	}
}

func strptr(s string) *string       { return &s }
func float64ptr(f float64) *float64 { return &f }
