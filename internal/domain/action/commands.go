package action

import "github.com/iamcore/iamcore/pkg/domain"

// AddWithID creates an action under a caller-specified ID. If the aggregate
// already has an instance.action.added event with no subsequent
// instance.action.removed, this is a re-add onto a live action and fails —
// the literal decision example from spec.md §4.3.
func AddWithID(existing *Action, name, script string, allowedToFail bool, editorUser string) (*Action, error) {
	if existing.Exists() && existing.State != StateRemoved {
		return nil, domain.NewAlreadyExists("ACTION-001", "instance action already exists")
	}
	if name == "" {
		return nil, domain.NewInvalidArgument("ACTION-002", "name is required")
	}
	existing.Record("instance.action.added", 1, AddedPayload{Name: name, Script: script, AllowedToFail: allowedToFail}, editorUser, existing.GetID())
	return existing, nil
}

func (a *Action) notFoundIfMissing() error {
	if !a.Exists() || a.State == StateRemoved {
		return domain.NewNotFound("ACTION-003", "instance action not found")
	}
	return nil
}

func (a *Action) Change(name, script string, allowedToFail bool, editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if name == "" {
		return domain.NewInvalidArgument("ACTION-002", "name is required")
	}
	if a.Name == name && a.Script == script && a.AllowedToFail == allowedToFail {
		return nil
	}
	a.Record("instance.action.changed", 1, ChangedPayload{Name: name, Script: script, AllowedToFail: allowedToFail}, editorUser, a.GetID())
	return nil
}

// Deactivate enforces the literal §4.3 decision example: deactivating a
// non-ACTIVE action is a FailedPrecondition.
func (a *Action) Deactivate(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.State != StateActive {
		return domain.NewFailedPrecondition("ACTION-004", "instance action is not active")
	}
	a.Record("instance.action.deactivated", 1, struct{}{}, editorUser, a.GetID())
	return nil
}

func (a *Action) Reactivate(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.State != StateInactive {
		return domain.NewFailedPrecondition("ACTION-005", "instance action is not inactive")
	}
	a.Record("instance.action.reactivated", 1, struct{}{}, editorUser, a.GetID())
	return nil
}

func (a *Action) Remove(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	a.Record("instance.action.removed", 1, struct{}{}, editorUser, a.GetID())
	return nil
}

func NewExecution(instanceID, id string, targets []string, editorUser string) (*Execution, error) {
	if len(targets) == 0 {
		return nil, domain.NewInvalidArgument("EXECUTION-001", "at least one target is required")
	}
	e := newExecution(instanceID, id)
	e.Record("instance.execution.added", 1, ExecutionAddedPayload{Targets: targets}, editorUser, id)
	return e, nil
}

func (e *Execution) Change(targets []string, editorUser string) error {
	if !e.Exists() || e.Removed {
		return domain.NewNotFound("EXECUTION-002", "instance execution not found")
	}
	if len(targets) == 0 {
		return domain.NewInvalidArgument("EXECUTION-001", "at least one target is required")
	}
	if sameTargets(e.Targets, targets) {
		return nil
	}
	e.Record("instance.execution.changed", 1, ExecutionChangedPayload{Targets: targets}, editorUser, e.GetID())
	return nil
}

func (e *Execution) Remove(editorUser string) error {
	if !e.Exists() || e.Removed {
		return domain.NewNotFound("EXECUTION-002", "instance execution not found")
	}
	e.Record("instance.execution.removed", 1, struct{}{}, editorUser, e.GetID())
	return nil
}

func sameTargets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
