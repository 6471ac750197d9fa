package shared

// MovementKind defines the direction of a stock movement
type MovementKind string

const (
	MovementKindReceived MovementKind = "RECEIVED"
	MovementKindIssued   MovementKind = "ISSUED"
)

// DecisionStatus defines the admission states of an issuance request
type DecisionStatus string

const (
	DecisionStatusRequested DecisionStatus = "REQUESTED"
	DecisionStatusAdmitted  DecisionStatus = "ADMITTED"
	DecisionStatusRejected  DecisionStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible
func (s DecisionStatus) Terminal() bool {
	return s == DecisionStatusAdmitted || s == DecisionStatusRejected
}

// RejectionReason defines why an issuance request was not admitted
type RejectionReason string

const (
	RejectionReasonInsufficientStock RejectionReason = "INSUFFICIENT_STOCK"
	RejectionReasonValidationFailed  RejectionReason = "VALIDATION_FAILED"
	RejectionReasonUnknownError      RejectionReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
