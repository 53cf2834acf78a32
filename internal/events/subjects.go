package events

// NATS subject constants for alert fan-out.
// Format: monitor.<domain>.<action>

const (
	// SubjectAlertRaised carries every alert accepted by POST /alerts.
	SubjectAlertRaised = "monitor.alert.raised"

	// Dead letter queue prefix, for messages that exhausted delivery.
	SubjectDLQPrefix = "monitor.dlq"
)

// DLQSubject returns the dead letter queue subject for a given subject.
// Example: DLQSubject(SubjectAlertRaised) -> "monitor.dlq.monitor.alert.raised"
func DLQSubject(subject string) string {
	return SubjectDLQPrefix + "." + subject
}
