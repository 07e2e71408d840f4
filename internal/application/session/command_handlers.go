package session

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/session"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/project.CommandHandlers, plus two fan-out handlers
// (TerminateAllForUser/TerminateAllForOrg) that load and terminate many
// session aggregates in one command, since that invariant spans aggregates.
type CommandHandlers struct {
	repo       *infrastructure.SessionRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	readModel  infrastructure.SessionReadModelRepository
}

func NewCommandHandlers(repo *infrastructure.SessionRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, readModel infrastructure.SessionReadModelRepository) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, readModel: readModel}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(CreateClassicSessionCommand{}.CommandType(), h.handleCreateClassic)
	bus.Register(CreateOIDCSessionCommand{}.CommandType(), h.handleCreateOIDC)
	bus.Register(VerifySessionFactorCommand{}.CommandType(), h.handleVerifyFactor)
	bus.Register(UpdateSessionTokensCommand{}.CommandType(), h.handleUpdateTokens)
	bus.Register(UpdateSessionAuthTimeCommand{}.CommandType(), h.handleUpdateAuthTime)
	bus.Register(TerminateSessionCommand{}.CommandType(), h.handleTerminate)
	bus.Register(TerminateAllUserSessionsCommand{}.CommandType(), h.handleTerminateAllForUser)
	bus.Register(TerminateAllOrgSessionsCommand{}.CommandType(), h.handleTerminateAllForOrg)
}

func empty() application.Response[struct{}] { return application.Response[struct{}]{Data: struct{}{}} }

func fail(err error) (application.Response[struct{}], error) {
	return application.Response[struct{}]{Error: err}, err
}

func (h *CommandHandlers) commit(ctx context.Context, instanceID string, entity esdomain.Entity) error {
	uow := esapp.NewSimpleUnitOfWork(instanceID, h.store, h.dispatcher)
	if err := uow.Track(entity); err != nil {
		return fmt.Errorf("track %s: %w", entity.GetID(), err)
	}
	return uow.Commit(ctx)
}

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*session.Session, error) {
	s, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "SESSION-LOAD-001")
	}
	if !s.Exists() {
		return nil, domain.NewNotFound("SESSION-002", "session not found")
	}
	return s, nil
}

func (h *CommandHandlers) handleCreateClassic(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateClassicSessionCommand)
	s, err := session.CreateClassic(cmd.InstanceID, cmd.ID, cmd.UserID, cmd.OrgID, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleCreateOIDC(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateOIDCSessionCommand)
	s, err := session.CreateOIDC(cmd.InstanceID, cmd.ID, cmd.UserID, cmd.OrgID, cmd.CodeChallenge, cmd.CodeChallengeMethod, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-CREATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleVerifyFactor(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(VerifySessionFactorCommand)
	s, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := s.VerifyFactor(cmd.Method, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-FACTOR-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleUpdateTokens(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(UpdateSessionTokensCommand)
	s, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := s.UpdateTokens(cmd.TokenIDs, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-TOKENS-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleUpdateAuthTime(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(UpdateSessionAuthTimeCommand)
	s, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := s.UpdateAuthTime(cmd.AuthTime, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-AUTHTIME-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleTerminate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(TerminateSessionCommand)
	s, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := s.Terminate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
		return fail(security.ClassifyForCaller(err, "SESSION-TERMINATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleTerminateAllForUser(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(TerminateAllUserSessionsCommand)
	ids, err := h.readModel.ListActiveIDsByUser(ctx, cmd.InstanceID, cmd.UserID)
	if err != nil {
		return fail(domain.NewInternal("SESSION-TERMINATE-ALL-001", "failed to list active sessions", err))
	}
	for _, id := range ids {
		s, err := h.load(ctx, cmd.InstanceID, id)
		if err != nil {
			return fail(err)
		}
		if err := s.Terminate(cmd.EditorUser); err != nil {
			return fail(err)
		}
		if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
			return fail(security.ClassifyForCaller(err, "SESSION-TERMINATE-ALL-002"))
		}
	}
	return empty(), nil
}

func (h *CommandHandlers) handleTerminateAllForOrg(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(TerminateAllOrgSessionsCommand)
	ids, err := h.readModel.ListActiveIDsByOrg(ctx, cmd.InstanceID, cmd.OrgID)
	if err != nil {
		return fail(domain.NewInternal("SESSION-TERMINATE-ALL-003", "failed to list active sessions", err))
	}
	for _, id := range ids {
		s, err := h.load(ctx, cmd.InstanceID, id)
		if err != nil {
			return fail(err)
		}
		if err := s.Terminate(cmd.EditorUser); err != nil {
			return fail(err)
		}
		if err := h.commit(ctx, cmd.InstanceID, s); err != nil {
			return fail(security.ClassifyForCaller(err, "SESSION-TERMINATE-ALL-004"))
		}
	}
	return empty(), nil
}
