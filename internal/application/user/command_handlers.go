package user

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/user"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/internal/ports"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers closes every user command handler over its dependencies:
// repository, event store/dispatcher for the UnitOfWork, and the injected
// capabilities (password hashing, phone normalization, code generation) the
// aggregate itself stays free of.
type CommandHandlers struct {
	repo       *infrastructure.UserRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	hasher     ports.PasswordHasher
	phones     ports.PhoneNormalizer
	codeGen    security.CodeGen
}

func NewCommandHandlers(repo *infrastructure.UserRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, hasher ports.PasswordHasher, phones ports.PhoneNormalizer, codeGen security.CodeGen) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, hasher: hasher, phones: phones, codeGen: codeGen}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(CreateHumanUserCommand{}.CommandType(), h.handleCreateHuman)
	bus.Register(CreateMachineUserCommand{}.CommandType(), h.handleCreateMachine)
	bus.Register(ChangeUsernameCommand{}.CommandType(), h.handleChangeUsername)
	bus.Register(ChangeProfileCommand{}.CommandType(), h.handleChangeProfile)
	bus.Register(ChangeEmailCommand{}.CommandType(), h.handleChangeEmail)
	bus.Register(VerifyEmailCommand{}.CommandType(), h.handleVerifyEmail)
	bus.Register(ChangePhoneCommand{}.CommandType(), h.handleChangePhone)
	bus.Register(VerifyPhoneCommand{}.CommandType(), h.handleVerifyPhone)
	bus.Register(ChangePasswordCommand{}.CommandType(), h.handleChangePassword)
	bus.Register(LockUserCommand{}.CommandType(), h.handleLock)
	bus.Register(UnlockUserCommand{}.CommandType(), h.handleUnlock)
	bus.Register(DeactivateUserCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(ReactivateUserCommand{}.CommandType(), h.handleReactivate)
	bus.Register(RemoveUserCommand{}.CommandType(), h.handleRemove)
	bus.Register(AddTOTPCommand{}.CommandType(), h.handleAddTOTP)
	bus.Register(VerifyTOTPCommand{}.CommandType(), h.handleVerifyTOTP)
	bus.Register(RemoveTOTPCommand{}.CommandType(), h.handleRemoveTOTP)
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

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*user.User, error) {
	u, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "USER-LOAD-001")
	}
	if !u.Exists() {
		return nil, domain.NewNotFound("USER-002", "user not found")
	}
	return u, nil
}

func (h *CommandHandlers) handleCreateHuman(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateHumanUserCommand)
	if err := cmd.Validate(); err != nil {
		return fail(err)
	}

	phone := cmd.Phone
	if phone != "" {
		normalized, err := h.phones.Normalize(phone, cmd.DefaultRegion)
		if err != nil {
			return fail(domain.NewInvalidArgument("USER-PHONE-003", "invalid phone number"))
		}
		phone = normalized
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return fail(domain.NewInvalidArgument("USER-PASSWORD-001", "password cannot be hashed"))
	}

	u, err := user.NewHuman(cmd.InstanceID, cmd.ID, cmd.Username, cmd.DisplayName, cmd.Email, phone, hash, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-CREATE-001"))
	}
	log.Info("human user created", "instanceId", cmd.InstanceID, "userId", cmd.ID)
	return empty(), nil
}

func (h *CommandHandlers) handleCreateMachine(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateMachineUserCommand)
	u, err := user.NewMachine(cmd.InstanceID, cmd.ID, cmd.Username, cmd.DisplayName, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-CREATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeUsername(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeUsernameCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.ChangeUsername(cmd.Username, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-USERNAME-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeProfile(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProfileCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.ChangeProfile(cmd.DisplayName, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-PROFILE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeEmail(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeEmailCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	code, err := h.codeGen.OTP6()
	if err != nil {
		return fail(domain.NewInternal("USER-EMAIL-CODEGEN-001", "failed to generate verification code", err))
	}
	if err := u.ChangeEmail(cmd.NewEmail, code, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-EMAIL-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleVerifyEmail(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(VerifyEmailCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	verifyErr := u.VerifyEmail(cmd.Code, cmd.EditorUser)
	if commitErr := h.commit(ctx, cmd.InstanceID, u); commitErr != nil {
		return fail(security.ClassifyForCaller(commitErr, "USER-EMAIL-002"))
	}
	if verifyErr != nil {
		return fail(verifyErr)
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangePhone(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangePhoneCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	normalized, err := h.phones.Normalize(cmd.NewPhone, cmd.DefaultRegion)
	if err != nil {
		return fail(domain.NewInvalidArgument("USER-PHONE-003", "invalid phone number"))
	}
	code, err := h.codeGen.OTP6()
	if err != nil {
		return fail(domain.NewInternal("USER-PHONE-CODEGEN-001", "failed to generate verification code", err))
	}
	if err := u.ChangePhone(normalized, code, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-PHONE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleVerifyPhone(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(VerifyPhoneCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	verifyErr := u.VerifyPhone(cmd.Code, cmd.EditorUser)
	if commitErr := h.commit(ctx, cmd.InstanceID, u); commitErr != nil {
		return fail(security.ClassifyForCaller(commitErr, "USER-PHONE-002"))
	}
	if verifyErr != nil {
		return fail(verifyErr)
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangePassword(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangePasswordCommand)
	if err := cmd.Validate(); err != nil {
		return fail(err)
	}
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	hash, err := h.hasher.Hash(cmd.NewPassword)
	if err != nil {
		return fail(domain.NewInvalidArgument("USER-PASSWORD-001", "password cannot be hashed"))
	}
	if err := u.ChangePassword(hash, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-PASSWORD-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleLock(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(LockUserCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.Lock(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-LOCK-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleUnlock(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(UnlockUserCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.Unlock(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-LOCK-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateUserCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-STATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateUserCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.Reactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-STATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveUserCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-REMOVE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddTOTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddTOTPCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.AddTOTP(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-TOTP-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleVerifyTOTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(VerifyTOTPCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.VerifyTOTP(cmd.CodeValid, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-TOTP-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveTOTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveTOTPCommand)
	u, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := u.RemoveTOTP(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, u); err != nil {
		return fail(security.ClassifyForCaller(err, "USER-TOTP-003"))
	}
	return empty(), nil
}
