package queue

type TaskType string

const (
	TaskTypeAnalysisJob    TaskType = "analysis_job"
	TaskTypeHistoryCleanup TaskType = "history_cleanup"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeAnalysisJob, TaskTypeHistoryCleanup:
		return true
	}
	return false
}
