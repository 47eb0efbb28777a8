package core

// Status is the routing token written by a workflow node and consumed by
// the conditional edge that immediately follows it. Unknown values never
// reach an undefined transition: every conditional edge declares a
// fallback label.
type Status string

const (
	StatusNone     Status = ""
	StatusContinue Status = "continue"
	StatusConfirm  Status = "confirm"
	StatusProceed  Status = "proceed"
	StatusModify   Status = "modify"
	StatusExit     Status = "exit"
)
