// Package cloudwatch provides the metric query client used by the collector.
package cloudwatch

import (
	"context"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/rs/zerolog"
)

// Metric namespaces and dimension names this tool queries.
const (
	NamespaceEC2 = "AWS/EC2"
	NamespaceRDS = "AWS/RDS"

	DimensionInstanceID   = "InstanceId"
	DimensionDBInstanceID = "DBInstanceIdentifier"
)

// Query window: recent enough to reflect current load, wide enough to
// guarantee at least one 5-minute datapoint.
const (
	lookback = 2 * time.Hour
	period   = int32(300)
)

// CloudWatchAPI defines the interface for CloudWatch operations (enables mocking)
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// Client queries CloudWatch metric statistics
type Client struct {
	client CloudWatchAPI
	log    zerolog.Logger
	now    func() time.Time
}

// NewClient creates a new CloudWatch client
func NewClient(cfg aws.Config, log zerolog.Logger) *Client {
	return &Client{
		client: cloudwatch.NewFromConfig(cfg),
		log:    log,
		now:    time.Now,
	}
}

// SetCloudWatchAPI sets a custom CloudWatch API client (for testing)
func (c *Client) SetCloudWatchAPI(api CloudWatchAPI) {
	c.client = api
}

// SetNow overrides the clock (for testing)
func (c *Client) SetNow(now func() time.Time) {
	c.now = now
}

// LatestAverage returns the most recent 5-minute average of a metric over
// the last two hours, rounded to two decimals. Errors and missing data both
// yield 0: a metric gap is never fatal to a collection run.
func (c *Client) LatestAverage(ctx context.Context, namespace, metricName, dimensionName, dimensionValue string) float64 {
	end := c.now().UTC()
	out, err := c.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(metricName),
		Dimensions: []types.Dimension{
			{Name: aws.String(dimensionName), Value: aws.String(dimensionValue)},
		},
		StartTime:  aws.Time(end.Add(-lookback)),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(period),
		Statistics: []types.Statistic{types.StatisticAverage},
	})
	if err != nil {
		c.log.Debug().Err(err).Str("metric", metricName).Str("resource", dimensionValue).
			Msg("metric query failed")
		return 0
	}
	if len(out.Datapoints) == 0 {
		return 0
	}

	latest := out.Datapoints[0]
	for _, dp := range out.Datapoints[1:] {
		if aws.ToTime(dp.Timestamp).After(aws.ToTime(latest.Timestamp)) {
			latest = dp
		}
	}
	return math.Round(aws.ToFloat64(latest.Average)*100) / 100
}
