package deepgram

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/korvid-ai/korvid-core/core/speechtotext/deepgram"

var logger = otelslog.NewLogger(scopeName)
