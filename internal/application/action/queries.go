package action

type GetActionQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetActionQuery) QueryType() string { return "action.Get" }

type ListActionsQuery struct {
	InstanceID string `json:"instanceId"`
}

func (q ListActionsQuery) QueryType() string { return "action.List" }

type GetExecutionQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetExecutionQuery) QueryType() string { return "action.GetExecution" }

type ActionView struct {
	ID            string
	Name          string
	Script        string
	AllowedToFail bool
	State         string
}

type ExecutionView struct {
	ID      string
	Targets []string
}
