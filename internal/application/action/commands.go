package action

type AddActionCommand struct {
	InstanceID    string `json:"instanceId"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Script        string `json:"script"`
	AllowedToFail bool   `json:"allowedToFail"`
	EditorUser    string `json:"editorUser"`
}

func (c AddActionCommand) CommandType() string { return "action.Add" }

type ChangeActionCommand struct {
	InstanceID    string `json:"instanceId"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Script        string `json:"script"`
	AllowedToFail bool   `json:"allowedToFail"`
	EditorUser    string `json:"editorUser"`
}

func (c ChangeActionCommand) CommandType() string { return "action.Change" }

type DeactivateActionCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateActionCommand) CommandType() string { return "action.Deactivate" }

type ReactivateActionCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateActionCommand) CommandType() string { return "action.Reactivate" }

type RemoveActionCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveActionCommand) CommandType() string { return "action.Remove" }

type AddExecutionCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	Targets    []string `json:"targets"`
	EditorUser string   `json:"editorUser"`
}

func (c AddExecutionCommand) CommandType() string { return "action.AddExecution" }

type ChangeExecutionCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	Targets    []string `json:"targets"`
	EditorUser string   `json:"editorUser"`
}

func (c ChangeExecutionCommand) CommandType() string { return "action.ChangeExecution" }

type RemoveExecutionCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveExecutionCommand) CommandType() string { return "action.RemoveExecution" }
