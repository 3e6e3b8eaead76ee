package registry

import "context"

// TelemetrySink receives operation lifecycle events and health metrics from
// the facade. Implementations must be cheap and must never fail the caller;
// the registry invokes the sink fire-and-forget and ignores everything about
// the outcome.
type TelemetrySink interface {
	// OperationStarted is invoked before an operation's access checks run.
	OperationStarted(ctx context.Context, operation string)

	// OperationCompleted is invoked after the operation finishes, successful
	// or not.
	OperationCompleted(ctx context.Context, operation string, success bool)

	// RecordHealthMetric records a named numeric observation, such as the
	// number of registered services after a mutation.
	RecordHealthMetric(ctx context.Context, name string, value float64, labels map[string]string)
}

// nopTelemetry is the default sink when none is configured.
type nopTelemetry struct{}

func (nopTelemetry) OperationStarted(context.Context, string)           {}
func (nopTelemetry) OperationCompleted(context.Context, string, bool)   {}
func (nopTelemetry) RecordHealthMetric(context.Context, string, float64, map[string]string) {
}
