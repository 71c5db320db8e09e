// File: pkg/resource/gcp/metrics.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const metricTimeWindow = 72 * time.Hour

// ErrMetricsNotFound indicates that the usage metrics could not be found within the queried time range
// This often happens for new buckets that haven't reported metrics yet
var ErrMetricsNotFound = errors.New("usage metrics not found in the monitoring window")

// BucketUsage returns the stored bytes of a bucket, or -1 when Cloud Monitoring has no data point yet
func (g *GCPProvider) BucketUsage(ctx context.Context, bucketName string) (int64, error) {
	usage, err := g.getSingleBucketUsage(ctx, bucketName)
	if errors.Is(err, ErrMetricsNotFound) {
		g.logger.Info("Usage metrics not yet available (bucket may be new), usage will be reported as N/A", "bucket", bucketName)
		return -1, nil
	}
	return usage, err
}

func (g *GCPProvider) getSingleBucketUsage(ctx context.Context, bucketName string) (int64, error) {
	g.logger.Debug("Fetching single GCP bucket usage metric via Monitoring API (Aggregated)", "bucket", bucketName)
	client, err := monitoring.NewMetricClient(ctx, g.clientOpts...)
	if err != nil {
		return -1, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	defer client.Close()

	it := client.ListTimeSeries(ctx, usageRequest(g.projectID, bucketName, time.Now()))

	// Everything is aggregated into a single point summed across series, so
	// at most one time series comes back
	resp, err := it.Next()

	if err == iterator.Done {
		return -1, ErrMetricsNotFound
	}
	if err != nil {
		return -1, fmt.Errorf("error getting metric data for bucket %s: %w", bucketName, err)
	}

	if len(resp.GetPoints()) > 0 {
		pointValue := resp.GetPoints()[0].GetValue()
		return extractUsageValue(pointValue), nil
	}

	return -1, ErrMetricsNotFound
}

func usageRequest(projectID, bucketName string, now time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   fmt.Sprintf("projects/%s", projectID),
		Filter: fmt.Sprintf(`metric.type="storage.googleapis.com/storage/v2/total_bytes" AND resource.labels.bucket_name="%s"`, bucketName),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-metricTimeWindow)),
			EndTime:   timestamppb.New(now),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(metricTimeWindow),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_SUM,
			GroupByFields:      []string{"resource.labels.bucket_name"},
		},
	}
}

func extractUsageValue(pointValue *monitoringpb.TypedValue) int64 {
	if pointValue == nil {
		return 0
	}

	switch v := pointValue.Value.(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		return int64(math.Round(v.DoubleValue))
	case *monitoringpb.TypedValue_Int64Value:
		return v.Int64Value
	default:
		return 0
	}
}
