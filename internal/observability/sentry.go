// Package observability wires optional error reporting. Sentry is only
// active when a DSN is configured; every entry point degrades to a no-op
// otherwise.
package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled bool

// InitSentry initializes the Sentry client. An empty DSN disables reporting.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	}); err != nil {
		return err
	}
	enabled = true
	return nil
}

// CaptureError reports an error to Sentry when reporting is enabled.
func CaptureError(err error) {
	if enabled && err != nil {
		sentry.CaptureException(err)
	}
}

// FlushSentry drains buffered events. Call before process exit.
func FlushSentry() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}
