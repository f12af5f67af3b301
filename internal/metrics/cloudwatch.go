package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "CHORDGRID/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch for the detector-quality and API metrics.
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a CloudWatch metrics client. Metrics are only shipped in
// production; elsewhere the client is a no-op.
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		m.put(
			datum(metricName, 1, types.StandardUnitCount, dimensions),
			datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
		)
	}()
}

// RecordDetectorLatency records how long one external detector call took.
func (m *Client) RecordDetectorLatency(detector, modelID string, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Detector"), Value: aws.String(detector)},
			{Name: aws.String("Model"), Value: aws.String(modelID)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}
		m.put(datum("DetectorLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions))
	}()
}

// RecordGridQuality ships the per-build detector-quality counters: labels the
// normalizer rejected and beats claimed by overlapping segments.
func (m *Client) RecordGridQuality(chordModelID string, invalidLabels, overlapTies int) {
	if !m.enabled {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Model"), Value: aws.String(chordModelID)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}
		m.put(
			datum("InvalidChordLabels", float64(invalidLabels), types.StandardUnitCount, dimensions),
			datum("AmbiguousSegmentOverlaps", float64(overlapTies), types.StandardUnitCount, dimensions),
		)
	}()
}

// RecordCacheInvalidation counts cached analyses discarded after a
// consistency violation.
func (m *Client) RecordCacheInvalidation() {
	if !m.enabled {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}
		m.put(datum("CacheInvalidations", 1, types.StandardUnitCount, dimensions))
	}()
}

func datum(name string, value float64, unit types.StandardUnit, dimensions []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Dimensions: dimensions,
		Timestamp:  aws.Time(time.Now()),
	}
}

func (m *Client) put(data ...types.MetricDatum) {
	ctx, cancel := context.WithTimeout(context.Background(), cloudwatchTimeoutSeconds*time.Second)
	defer cancel()

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	})
	if err != nil {
		log.Printf("⚠️  Failed to put CloudWatch metrics: %v", err)
	}
}
