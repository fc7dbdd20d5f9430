package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType classifies errors recorded on spans so they can be filtered in
// the tracing backend.
type ErrorType string

const (
	// ErrorTypeHTTP marks HTTP-surface errors.
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeDB marks relational-database errors.
	ErrorTypeDB ErrorType = "db"
	// ErrorTypeRedis marks key/value store errors.
	ErrorTypeRedis ErrorType = "redis"
	// ErrorTypeValidation marks input-validation errors.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal marks unclassified internal errors.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeExternal marks workflow-engine and object-storage errors.
	ErrorTypeExternal ErrorType = "external_system"
	// ErrorTypeTimeout marks deadline-exceeded errors.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypePermission marks authorization errors.
	ErrorTypePermission ErrorType = "permission"
)

// RecordError records err on span with a uniform error-type attribute.
func RecordError(span trace.Span, err error, errorType ErrorType) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	span.SetStatus(codes.Error, err.Error())
}

// RecordErrorWithInfo records err with extra attributes.
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// RecordHTTPError records an HTTP error with its status code, categorized
// as client or server error.
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeHTTP)),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)

	var errorCategory string
	switch {
	case statusCode >= 400 && statusCode < 500:
		errorCategory = "client_error"
	case statusCode >= 500:
		errorCategory = "server_error"
	default:
		errorCategory = "unknown"
	}
	span.SetAttributes(attribute.String("error.category", errorCategory))
	span.SetStatus(codes.Error, err.Error())
}
