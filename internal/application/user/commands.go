// Package user wires the User aggregate (internal/domain/user) into the
// command/query buses, following the same load -> decide -> commit shape as
// internal/application/org.
package user

import (
	"github.com/iamcore/iamcore/pkg/application"
)

type CreateHumanUserCommand struct {
	InstanceID    string `json:"instanceId"`
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	DefaultRegion string `json:"defaultRegion"`
	Password      string `json:"password"`
	EditorUser    string `json:"editorUser"`
}

func (c CreateHumanUserCommand) CommandType() string { return "user.CreateHuman" }

func (c CreateHumanUserCommand) Validate() error {
	if c.Username == "" {
		return application.NewValidationError("username", "username must not be empty")
	}
	if c.Email == "" {
		return application.NewValidationError("email", "email must not be empty")
	}
	if c.Password == "" {
		return application.NewValidationError("password", "password must not be empty")
	}
	return nil
}

type CreateMachineUserCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	EditorUser  string `json:"editorUser"`
}

func (c CreateMachineUserCommand) CommandType() string { return "user.CreateMachine" }

type ChangeUsernameCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Username   string `json:"username"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeUsernameCommand) CommandType() string { return "user.ChangeUsername" }

type ChangeProfileCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	EditorUser  string `json:"editorUser"`
}

func (c ChangeProfileCommand) CommandType() string { return "user.ChangeProfile" }

// ChangeEmailCommand's verification code is generated by the handler (via
// the injected security.CodeGen capability), matching org.AddDomain's
// division of labor: the aggregate takes a ready-made code.
type ChangeEmailCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	NewEmail   string `json:"newEmail"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeEmailCommand) CommandType() string { return "user.ChangeEmail" }

type VerifyEmailCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Code       string `json:"code"`
	EditorUser string `json:"editorUser"`
}

func (c VerifyEmailCommand) CommandType() string { return "user.VerifyEmail" }

type ChangePhoneCommand struct {
	InstanceID    string `json:"instanceId"`
	ID            string `json:"id"`
	NewPhone      string `json:"newPhone"`
	DefaultRegion string `json:"defaultRegion"`
	EditorUser    string `json:"editorUser"`
}

func (c ChangePhoneCommand) CommandType() string { return "user.ChangePhone" }

type VerifyPhoneCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Code       string `json:"code"`
	EditorUser string `json:"editorUser"`
}

func (c VerifyPhoneCommand) CommandType() string { return "user.VerifyPhone" }

// ChangePasswordCommand carries the new password in the clear; the handler
// hashes it via the injected ports.PasswordHasher before it ever reaches the
// aggregate, which only ever sees hashes.
type ChangePasswordCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	NewPassword string `json:"newPassword"`
	EditorUser  string `json:"editorUser"`
}

func (c ChangePasswordCommand) CommandType() string { return "user.ChangePassword" }

func (c ChangePasswordCommand) Validate() error {
	if c.NewPassword == "" {
		return application.NewValidationError("newPassword", "password must not be empty")
	}
	return nil
}

type LockUserCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c LockUserCommand) CommandType() string { return "user.Lock" }

type UnlockUserCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c UnlockUserCommand) CommandType() string { return "user.Unlock" }

type DeactivateUserCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateUserCommand) CommandType() string { return "user.Deactivate" }

type ReactivateUserCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateUserCommand) CommandType() string { return "user.Reactivate" }

type RemoveUserCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveUserCommand) CommandType() string { return "user.Remove" }

type AddTOTPCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c AddTOTPCommand) CommandType() string { return "user.AddTOTP" }

// VerifyTOTPCommand's CodeValid is computed by the caller (TOTP validation
// against the enrolled secret is an external capability, per the aggregate's
// own contract) and only the boolean outcome crosses into the command.
type VerifyTOTPCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	CodeValid  bool   `json:"codeValid"`
	EditorUser string `json:"editorUser"`
}

func (c VerifyTOTPCommand) CommandType() string { return "user.VerifyTOTP" }

type RemoveTOTPCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveTOTPCommand) CommandType() string { return "user.RemoveTOTP" }
