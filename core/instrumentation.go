package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/korvid-ai/korvid-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	turnsProcessedCounter    metric.Int64Counter
	interruptionsCounter     metric.Int64Counter
	staleToolResultsCounter  metric.Int64Counter
	speechFramesSentCounter  metric.Int64Counter
	resumedAfterFalseCounter metric.Int64Counter
)

func init() {
	turnsProcessedCounter, _ = meter.Int64Counter("conversation.turns_processed",
		metric.WithDescription("Number of assistant turns processed to completion"))
	interruptionsCounter, _ = meter.Int64Counter("conversation.interruptions",
		metric.WithDescription("Number of confirmed barge-ins"))
	staleToolResultsCounter, _ = meter.Int64Counter("conversation.stale_tool_results",
		metric.WithDescription("Number of tool results dropped because their generation was superseded"))
	speechFramesSentCounter, _ = meter.Int64Counter("conversation.speech_frames_sent",
		metric.WithDescription("Number of synthesized audio chunks forwarded to the output sink"))
	resumedAfterFalseCounter, _ = meter.Int64Counter("conversation.false_interruption_resumes",
		metric.WithDescription("Number of playbacks resumed after an interruption was classified as false"))
}
