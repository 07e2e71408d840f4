package org

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/org"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/internal/ports"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers closes every org command handler over the dependencies it
// needs (repository, event store, dispatcher, ID/code generation) so the bus
// itself never threads infrastructure through a call.
type CommandHandlers struct {
	repo       *infrastructure.OrgRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	idGen      ports.IDGen
	codeGen    security.CodeGen
}

func NewCommandHandlers(repo *infrastructure.OrgRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, idGen ports.IDGen, codeGen security.CodeGen) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, idGen: idGen, codeGen: codeGen}
}

// Register wires every org.* command type into bus. Each handler follows the
// same load -> decide -> commit shape: load the aggregate, call the one
// org.* method that decides the command, track it with a fresh UnitOfWork,
// and commit. A command that fails validation or a business rule never
// reaches Track/Commit, so nothing is persisted.
func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(CreateOrgCommand{}.CommandType(), h.handleCreate)
	bus.Register(ChangeOrgCommand{}.CommandType(), h.handleChange)
	bus.Register(DeactivateOrgCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(ReactivateOrgCommand{}.CommandType(), h.handleReactivate)
	bus.Register(RemoveOrgCommand{}.CommandType(), h.handleRemove)
	bus.Register(AddOrgDomainCommand{}.CommandType(), h.handleAddDomain)
	bus.Register(VerifyOrgDomainCommand{}.CommandType(), h.handleVerifyDomain)
	bus.Register(SetPrimaryOrgDomainCommand{}.CommandType(), h.handleSetPrimaryDomain)
	bus.Register(RemoveOrgDomainCommand{}.CommandType(), h.handleRemoveDomain)
	bus.Register(AddOrgMemberCommand{}.CommandType(), h.handleAddMember)
	bus.Register(ChangeOrgMemberCommand{}.CommandType(), h.handleChangeMember)
	bus.Register(RemoveOrgMemberCommand{}.CommandType(), h.handleRemoveMember)
}

func empty() application.Response[struct{}] {
	return application.Response[struct{}]{Data: struct{}{}}
}

func (h *CommandHandlers) commit(ctx context.Context, instanceID string, entity esdomain.Entity) error {
	uow := esapp.NewSimpleUnitOfWork(instanceID, h.store, h.dispatcher)
	if err := uow.Track(entity); err != nil {
		return fmt.Errorf("track %s: %w", entity.GetID(), err)
	}
	return uow.Commit(ctx)
}

func (h *CommandHandlers) handleCreate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateOrgCommand)
	if err := cmd.Validate(); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}

	o, err := org.New(cmd.InstanceID, cmd.ID, cmd.Name, cmd.EditorUser)
	if err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-CREATE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	log.Info("organization created", "instanceId", cmd.InstanceID, "orgId", cmd.ID)
	return empty(), nil
}

func (h *CommandHandlers) handleChange(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeOrgCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.Change(cmd.Name, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-CHANGE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateOrgCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.Deactivate(cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-DEACTIVATE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateOrgCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.Reactivate(cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-REACTIVATE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveOrgCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.Remove(cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-REMOVE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

// handleAddDomain generates the verification code here, at the application
// boundary, rather than in the aggregate: org.AddDomain takes an
// already-generated code, so whatever calls it owns the CodeGen capability.
func (h *CommandHandlers) handleAddDomain(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddOrgDomainCommand)
	if err := cmd.Validate(); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	code, err := h.codeGen.Token32()
	if err != nil {
		wrapped := domain.NewInternal("ORG-DOMAIN-CODEGEN-001", "failed to generate verification code", err)
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if err := o.AddDomain(cmd.Name, code, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-DOMAIN-ADD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleVerifyDomain(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(VerifyOrgDomainCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	verifyErr := o.VerifyDomain(cmd.Name, cmd.Code, cmd.EditorUser)
	// VerifyDomain may record a check-failed event and still return an error;
	// the failed attempt is committed either way so projections see it.
	if commitErr := h.commit(ctx, cmd.InstanceID, o); commitErr != nil {
		wrapped := security.ClassifyForCaller(commitErr, "ORG-DOMAIN-VERIFY-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if verifyErr != nil {
		return application.Response[struct{}]{Error: verifyErr}, verifyErr
	}
	return empty(), nil
}

func (h *CommandHandlers) handleSetPrimaryDomain(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(SetPrimaryOrgDomainCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.SetPrimaryDomain(cmd.Name, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-DOMAIN-PRIMARY-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveDomain(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveOrgDomainCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.RemoveDomain(cmd.Name, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-DOMAIN-REMOVE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddOrgMemberCommand)
	if err := cmd.Validate(); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.AddMember(cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-MEMBER-ADD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeOrgMemberCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.ChangeMember(cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-MEMBER-CHANGE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveOrgMemberCommand)
	o, err := h.repo.Load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-LOAD-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	if !o.Exists() {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[struct{}]{Error: err}, err
	}
	if err := o.RemoveMember(cmd.UserID, cmd.EditorUser); err != nil {
		return application.Response[struct{}]{Error: err}, err
	}
	if err := h.commit(ctx, cmd.InstanceID, o); err != nil {
		wrapped := security.ClassifyForCaller(err, "ORG-MEMBER-REMOVE-001")
		return application.Response[struct{}]{Error: wrapped}, wrapped
	}
	return empty(), nil
}
