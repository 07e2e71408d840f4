package session

import "github.com/iamcore/iamcore/pkg/domain"

// CreateClassic starts a session with no PKCE parameters.
func CreateClassic(instanceID, id, userID, orgID, editorUser string) (*Session, error) {
	if userID == "" {
		return nil, domain.NewInvalidArgument("SESSION-001", "user id is required")
	}
	s := newSession(instanceID, id, userID, orgID)
	s.Record("session.added", 1, AddedPayload{UserID: userID, OrgID: orgID}, editorUser, userID)
	return s, nil
}

// CreateOIDC starts an OIDC session, optionally with PKCE. codeChallenge and
// codeChallengeMethod must be supplied together or not at all (§4.3's
// symmetric decision example).
func CreateOIDC(instanceID, id, userID, orgID, codeChallenge, codeChallengeMethod, editorUser string) (*Session, error) {
	if userID == "" {
		return nil, domain.NewInvalidArgument("SESSION-001", "user id is required")
	}
	if codeChallenge != "" && codeChallengeMethod == "" {
		return nil, domain.NewInvalidArgument("SESSION-PKCE-001", "codeChallengeMethod required with codeChallenge")
	}
	if codeChallengeMethod != "" && codeChallenge == "" {
		return nil, domain.NewInvalidArgument("SESSION-PKCE-002", "codeChallenge required with codeChallengeMethod")
	}
	s := newSession(instanceID, id, userID, orgID)
	s.Record("session.added", 1, AddedPayload{
		UserID: userID, OrgID: orgID, CodeChallenge: codeChallenge, CodeChallengeMethod: codeChallengeMethod,
	}, editorUser, userID)
	return s, nil
}

func (s *Session) notFoundIfMissing() error {
	if !s.Exists() {
		return domain.NewNotFound("SESSION-002", "session not found")
	}
	return nil
}

func (s *Session) activeOrErr() error {
	if err := s.notFoundIfMissing(); err != nil {
		return err
	}
	if s.State != StateActive {
		return domain.NewFailedPrecondition("SESSION-003", "session is not active")
	}
	return nil
}

// VerifyFactor records a verified authentication-method factor. §3.3's
// "at-most-one verified factor of each auth-method type" invariant means a
// second verification of the same method is a no-op, not an error.
func (s *Session) VerifyFactor(method, editorUser string) error {
	if err := s.activeOrErr(); err != nil {
		return err
	}
	if s.Factors[method] {
		return nil
	}
	s.Record("session.factor.verified", 1, FactorVerifiedPayload{Method: method}, editorUser, s.UserID)
	return nil
}

func (s *Session) UpdateTokens(tokenIDs []string, editorUser string) error {
	if err := s.activeOrErr(); err != nil {
		return err
	}
	s.Record("session.tokens.updated", 1, TokensUpdatedPayload{TokenIDs: tokenIDs}, editorUser, s.UserID)
	return nil
}

func (s *Session) UpdateAuthTime(authTime int64, editorUser string) error {
	if err := s.activeOrErr(); err != nil {
		return err
	}
	if authTime == s.AuthTime {
		return nil
	}
	s.Record("session.auth_time.updated", 1, AuthTimeUpdatedPayload{AuthTime: authTime}, editorUser, s.UserID)
	return nil
}

func (s *Session) Terminate(editorUser string) error {
	if err := s.notFoundIfMissing(); err != nil {
		return err
	}
	if s.State == StateTerminated {
		return nil
	}
	s.Record("session.terminated", 1, struct{}{}, editorUser, s.UserID)
	return nil
}
