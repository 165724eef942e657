package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/glimpse-app/glimpse-api/internal/aws"
)

// Emitter publishes counter metrics to CloudWatch. A nil Emitter is a no-op,
// so local mode and tests run without a metrics tier.
type Emitter struct {
	client    aws.CloudWatchAPI
	namespace string
}

// NewEmitter returns an Emitter publishing under the given namespace.
func NewEmitter(client aws.CloudWatchAPI, namespace string) *Emitter {
	if namespace == "" {
		namespace = "GlimpseAPI"
	}
	return &Emitter{client: client, namespace: namespace}
}

// Count emits a single count datapoint. Failures are logged, never returned:
// metrics must not affect the request path.
func (e *Emitter) Count(ctx context.Context, name string) {
	if e == nil || e.client == nil {
		return
	}
	one := 1.0
	now := time.Now()
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &e.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &now,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		log.Printf("[metrics] WARN put metric %s: %v", name, err)
	}
}
