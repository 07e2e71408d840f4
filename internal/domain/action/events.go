package action

type AddedPayload struct {
	Name          string `json:"name"`
	Script        string `json:"script"`
	AllowedToFail bool   `json:"allowedToFail"`
}

type ChangedPayload struct {
	Name          string `json:"name"`
	Script        string `json:"script"`
	AllowedToFail bool   `json:"allowedToFail"`
}

type ExecutionAddedPayload struct {
	Targets []string `json:"targets"`
}

type ExecutionChangedPayload struct {
	Targets []string `json:"targets"`
}
