package logging

// Structured field keys shared by every component.
const (
	FieldComponent      = "component"
	FieldRunID          = "run_id"
	FieldStage          = "stage"
	FieldEventType      = "event_type"
	FieldErrorHint      = "error_hint"
	FieldImpact         = "impact"
	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)
