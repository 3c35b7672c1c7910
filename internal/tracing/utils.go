package tracing

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/plutushq/leadstream/internal/logger"
)

const (
	SpanTagComponent = "component"
	SpanTagTopic     = "topic"
	SpanTagPartition = "partition"
	SpanTagOffset    = "offset"
)

const (
	SpanTagComponentService   = "service"
	SpanTagComponentListener  = "listener"
	SpanTagComponentPublisher = "publisher"
	SpanTagComponentConsumer  = "consumer"
	SpanTagComponentCronJob   = "cronJob"
)

// StartKafkaMessageTracerSpanWithHeader resumes the trace propagated in the
// uber-trace-id record header, or starts a fresh root span when absent.
func StartKafkaMessageTracerSpanWithHeader(ctx context.Context, operationName string, uberTraceId string) (context.Context, opentracing.Span) {
	carrier := make(opentracing.TextMapCarrier)
	carrier.Set("uber-trace-id", uberTraceId)

	parent, err := opentracing.GlobalTracer().Extract(opentracing.TextMap, carrier)
	if err != nil {
		span := opentracing.GlobalTracer().StartSpan(operationName)
		return opentracing.ContextWithSpan(ctx, span), span
	}

	span := opentracing.GlobalTracer().StartSpan(operationName, ext.RPCServerOption(parent))
	return opentracing.ContextWithSpan(ctx, span), span
}

func ExtractTextMapCarrier(spanCtx opentracing.SpanContext) opentracing.TextMapCarrier {
	textMapCarrier := make(opentracing.TextMapCarrier)
	err := opentracing.GlobalTracer().Inject(spanCtx, opentracing.TextMap, textMapCarrier)
	if err != nil {
		return make(opentracing.TextMapCarrier)
	}
	return textMapCarrier
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	ext.LogError(span, err, fields...)
}

func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogKV(name, "nil")
		return
	}
	jsonObject, err := json.Marshal(object)
	if err == nil {
		span.LogKV(name, string(jsonObject))
	} else {
		span.LogKV(name, object)
	}
}

func SetDefaultServiceSpanTags(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func SetDefaultListenerSpanTags(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentListener)
}

func SetDefaultPublisherSpanTags(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentPublisher)
}

func TagTopic(span opentracing.Span, topic string) {
	span.SetTag(SpanTagTopic, topic)
}

// RecoverAndLog stops a panicking goroutine from taking the whole consumer
// process down with it.
func RecoverAndLog(log logger.Logger) {
	if r := recover(); r != nil {
		log.Errorf("recovered from panic: %v\n%s", r, debug.Stack())
	}
}
