package domain

import "time"

type AuditOutcome string

const (
	AuditAttempt AuditOutcome = "attempt"
	AuditSuccess AuditOutcome = "success"
	AuditFailure AuditOutcome = "failure"
)

type IngestStage string

const (
	StageValidate IngestStage = "validate"
	StageUpload   IngestStage = "upload"
	StageReadback IngestStage = "readback"
	StageParse    IngestStage = "parse"
	StageProcess  IngestStage = "process"
	StagePipeline IngestStage = "pipeline"
)

// AuditEvent is one entry of the ingestion audit trail.
type AuditEvent struct {
	Timestamp  time.Time
	Stage      IngestStage
	Outcome    AuditOutcome
	IndustryID string
	DataType   DataType
	Path       string
	Err        error
}
