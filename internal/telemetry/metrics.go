package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the blog API
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// Blog specific
	PostsCreatedTotal metric.Int64Counter
	PostsUpdatedTotal metric.Int64Counter
	PostsDeletedTotal metric.Int64Counter
	// media
	UploadsTotal         metric.Int64Counter
	UploadFailuresTotal  metric.Int64Counter
	UploadDuration       metric.Float64Histogram
	CleanupFailuresTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	postsCreatedTotal, err := meter.Int64Counter(
		"posts_created",
		metric.WithDescription("Total number of posts created"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_created: %w", err)
	}

	postsUpdatedTotal, err := meter.Int64Counter(
		"posts_updated",
		metric.WithDescription("Total number of posts updated"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_updated: %w", err)
	}

	postsDeletedTotal, err := meter.Int64Counter(
		"posts_deleted",
		metric.WithDescription("Total number of posts deleted"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_deleted: %w", err)
	}

	uploadsTotal, err := meter.Int64Counter(
		"media_uploads",
		metric.WithDescription("Total number of successful image uploads"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_uploads: %w", err)
	}

	uploadFailuresTotal, err := meter.Int64Counter(
		"media_upload_failures",
		metric.WithDescription("Number of image uploads that produced no URL"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_upload_failures: %w", err)
	}

	uploadDuration, err := meter.Float64Histogram(
		"media_upload_duration",
		metric.WithDescription("Time spent handing an image to the media host"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_upload_duration: %w", err)
	}

	cleanupFailuresTotal, err := meter.Int64Counter(
		"temp_cleanup_failures",
		metric.WithDescription("Number of temporary upload files that could not be removed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp_cleanup_failures: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		HTTPActiveRequests:   httpActiveRequests,
		PostsCreatedTotal:    postsCreatedTotal,
		PostsUpdatedTotal:    postsUpdatedTotal,
		PostsDeletedTotal:    postsDeletedTotal,
		UploadsTotal:         uploadsTotal,
		UploadFailuresTotal:  uploadFailuresTotal,
		UploadDuration:       uploadDuration,
		CleanupFailuresTotal: cleanupFailuresTotal,
		RateLimitHitsTotal:   rateLimitHitsTotal,
	}, nil
}
