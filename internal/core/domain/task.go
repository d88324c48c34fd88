package domain

type TaskOp string

const (
	TaskOpCreateAssets      TaskOp = "CREATE_ASSETS"
	TaskOpCreateAssessments TaskOp = "CREATE_ASSESSMENTS"
	TaskOpUpdateAssets      TaskOp = "UPDATE_ASSETS"
	TaskOpUpdateAssessments TaskOp = "UPDATE_ASSESSMENTS"
	TaskOpUpdateCompliance  TaskOp = "UPDATE_COMPLIANCE"
	TaskOpCreateSource      TaskOp = "CREATE_SOURCE"
	TaskOpUpdateSource      TaskOp = "UPDATE_SOURCE"
	TaskOpControlEvaluation TaskOp = "CONTROL_EVALUATION"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusProcessed TaskStatus = "PROCESSED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusInProcess TaskStatus = "IN_PROCESS"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// AsyncTask is a unit of outstanding work. At most one task per
// (app, op, entity) is live at a time; the pipeline transitions exactly one
// matching PENDING task to PROCESSED on success.
type AsyncTask struct {
	ID         int64
	CustomerID string
	AppID      int64
	Op         TaskOp
	Status     TaskStatus
	EntityType string
	EntityID   string
}
