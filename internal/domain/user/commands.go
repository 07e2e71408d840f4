package user

import (
	"github.com/iamcore/iamcore/pkg/domain"
)

const maxUsernameLen = 200

// NewHuman creates a human user. email/phone are expected to already be
// normalized (email regex, E.164) and passwordHash already hashed by the
// caller's injected ports — the aggregate only enforces its own format and
// state invariants, staying pure and I/O-free per spec.md §5.
func NewHuman(instanceID, id, username, displayName, email, phone, passwordHash, editorUser string) (*User, error) {
	if username == "" || len(username) > maxUsernameLen {
		return nil, domain.NewInvalidArgument("USER-HUMAN-001", "username must be non-empty and at most 200 characters")
	}
	if email == "" {
		return nil, domain.NewInvalidArgument("USER-HUMAN-002", "email is required")
	}

	u := newUser(instanceID, id, TypeHuman)
	u.Username = username
	u.DisplayName = displayName
	u.Email = email
	u.Phone = phone
	u.PasswordHash = passwordHash
	u.State = StateInitial
	u.Record("user.human.added", 1, HumanAddedPayload{
		Username: username, DisplayName: displayName, Email: email, Phone: phone, PasswordHash: passwordHash,
	}, editorUser, id)
	return u, nil
}

func NewMachine(instanceID, id, username, displayName, editorUser string) (*User, error) {
	if username == "" || len(username) > maxUsernameLen {
		return nil, domain.NewInvalidArgument("USER-MACHINE-001", "username must be non-empty and at most 200 characters")
	}
	if displayName == "" {
		return nil, domain.NewInvalidArgument("USER-MACHINE-002", "display name must be non-empty")
	}

	u := newUser(instanceID, id, TypeMachine)
	u.Username = username
	u.DisplayName = displayName
	u.State = StateActive
	u.Record("user.machine.added", 1, MachineAddedPayload{Username: username, DisplayName: displayName}, editorUser, id)
	return u, nil
}

func (u *User) notFoundIfMissing() error {
	if !u.Exists() || u.State == StateDeleted {
		return domain.NewNotFound("USER-003", "user not found")
	}
	return nil
}

func (u *User) ChangeUsername(username, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if username == "" || len(username) > maxUsernameLen {
		return domain.NewInvalidArgument("USER-HUMAN-001", "username must be non-empty and at most 200 characters")
	}
	if username == u.Username {
		return nil
	}
	u.Record("user.username.changed", 1, UsernameChangedPayload{Username: username}, editorUser, u.GetID())
	return nil
}

func (u *User) ChangeProfile(displayName, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if displayName == u.DisplayName {
		return nil
	}
	u.Record("user.profile.changed", 1, ProfileChangedPayload{DisplayName: displayName}, editorUser, u.GetID())
	return nil
}

// ChangeEmail records a pending verification code for the new email; the
// email does not take effect until VerifyEmail succeeds.
func (u *User) ChangeEmail(newEmail, code, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if newEmail == "" {
		return domain.NewInvalidArgument("USER-HUMAN-002", "email is required")
	}
	if newEmail == u.Email {
		return nil
	}
	u.Record("user.email.change.code.added", 1, EmailChangeCodeAddedPayload{Email: newEmail, Code: code}, editorUser, u.GetID())
	return nil
}

func (u *User) VerifyEmail(code, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.PendingEmail == nil {
		return domain.NewFailedPrecondition("USER-EMAIL-001", "no pending email verification")
	}
	if code != u.PendingEmail.Code {
		u.Record("user.email.verify.check.failed", 1, struct{}{}, editorUser, u.GetID())
		return domain.NewInvalidArgument("USER-EMAIL-002", "verification code does not match")
	}
	u.Record("user.email.verified", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) ChangePhone(newPhone, code, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if newPhone == u.Phone {
		return nil
	}
	u.Record("user.phone.change.code.added", 1, PhoneChangeCodeAddedPayload{Phone: newPhone, Code: code}, editorUser, u.GetID())
	return nil
}

func (u *User) VerifyPhone(code, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.PendingPhone == nil {
		return domain.NewFailedPrecondition("USER-PHONE-001", "no pending phone verification")
	}
	if code != u.PendingPhone.Code {
		u.Record("user.phone.verify.check.failed", 1, struct{}{}, editorUser, u.GetID())
		return domain.NewInvalidArgument("USER-PHONE-002", "verification code does not match")
	}
	u.Record("user.phone.verified", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) ChangePassword(newHash, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if newHash == u.PasswordHash {
		return nil
	}
	u.Record("user.password.changed", 1, PasswordChangedPayload{PasswordHash: newHash}, editorUser, u.GetID())
	return nil
}

func (u *User) Lock(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.State == StateLocked {
		return nil
	}
	u.Record("user.locked", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) Unlock(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.State != StateLocked {
		return domain.NewFailedPrecondition("USER-004", "user is not locked")
	}
	u.Record("user.unlocked", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) Deactivate(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.State != StateActive {
		return domain.NewFailedPrecondition("USER-006", "user is not active")
	}
	u.Record("user.deactivated", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) Reactivate(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if u.State != StateInactive {
		return domain.NewFailedPrecondition("USER-005", "user is not inactive")
	}
	u.Record("user.reactivated", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) Remove(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	u.Record("user.removed", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

// AddTOTP begins TOTP enrollment; the factor exists but is unverified until
// VerifyTOTP succeeds with a valid code (code verification itself is an
// injected capability out of scope per spec.md §1 — the aggregate only
// records the boolean outcome the caller already computed).
func (u *User) AddTOTP(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := u.Factors[FactorTOTP]; exists {
		return domain.NewAlreadyExists("USER-TOTP-001", "TOTP factor already added")
	}
	u.Record("user.human.totp.added", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) VerifyTOTP(codeValid bool, editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	f, exists := u.Factors[FactorTOTP]
	if !exists {
		return domain.NewNotFound("USER-TOTP-002", "TOTP factor not found")
	}
	if f.Verified {
		return nil
	}
	if !codeValid {
		return domain.NewInvalidArgument("USER-TOTP-003", "TOTP code does not match")
	}
	u.Record("user.human.totp.verified", 1, struct{}{}, editorUser, u.GetID())
	return nil
}

func (u *User) RemoveTOTP(editorUser string) error {
	if err := u.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := u.Factors[FactorTOTP]; !exists {
		return domain.NewNotFound("USER-TOTP-002", "TOTP factor not found")
	}
	u.Record("user.human.totp.removed", 1, struct{}{}, editorUser, u.GetID())
	return nil
}
