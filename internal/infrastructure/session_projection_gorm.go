package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// SessionProjectionRow is the GORM row for one session, kept in sync by
// SessionProjectionGORM as session.* events are applied.
type SessionProjectionRow struct {
	InstanceID          string `gorm:"primaryKey;type:varchar(64)"`
	ID                  string `gorm:"primaryKey;type:varchar(64)"`
	UserID              string `gorm:"index;type:varchar(64);not null"`
	OrgID               string `gorm:"index;type:varchar(64)"`
	State               string `gorm:"type:varchar(32);not null"`
	FactorsJSON         string `gorm:"column:factors;type:text;not null;default:'[]'"`
	TokenIDsJSON        string `gorm:"column:token_ids;type:text;not null;default:'[]'"`
	AuthTime            int64  `gorm:"not null;default:0"`
	CodeChallenge       string `gorm:"type:varchar(200)"`
	CodeChallengeMethod string `gorm:"type:varchar(16)"`
}

func (SessionProjectionRow) TableName() string { return "sessions_projection" }

// SessionReadModel is the plain read shape handed back to callers;
// internal/application/session converts it into its own view type.
type SessionReadModel struct {
	ID                  string
	UserID              string
	OrgID               string
	State               string
	AMR                 []string
	TokenIDs            []string
	AuthTime            int64
	CodeChallenge       string
	CodeChallengeMethod string
}

// SessionReadModelRepository is the read side every session query/command
// handler depends on. SessionProjectionGORM is the default implementation;
// SessionReadModelDynamoDB is a selectable low-latency alternative for the
// hot GetByID/ListByUser lookups — both satisfy this shape so the
// application layer never imports a specific backend.
type SessionReadModelRepository interface {
	GetByID(ctx context.Context, instanceID, id string) (*SessionReadModel, error)
	ListByUser(ctx context.Context, instanceID, userID string) ([]SessionReadModel, error)
	ListActiveIDsByUser(ctx context.Context, instanceID, userID string) ([]string, error)
	ListActiveIDsByOrg(ctx context.Context, instanceID, orgID string) ([]string, error)
}

// SessionProjectionGORM is both the projection engine's Handler (writing)
// and the query side's read model (reading) for sessions.
type SessionProjectionGORM struct {
	db *gorm.DB
}

func NewSessionProjectionGORM(db *gorm.DB) *SessionProjectionGORM {
	return &SessionProjectionGORM{db: db}
}

func (p *SessionProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&SessionProjectionRow{})
}

func (p *SessionProjectionGORM) Name() string { return "session_projection" }

func (p *SessionProjectionGORM) EventTypes() []string {
	return []string{
		"session.added", "session.factor.verified", "session.tokens.updated",
		"session.auth_time.updated", "session.terminated",
	}
}

func (p *SessionProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for session %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *SessionProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	sessionID := env.AggregateID

	switch env.EventType {
	case "session.added":
		var payload struct {
			UserID              string `json:"userId"`
			OrgID               string `json:"orgId"`
			CodeChallenge       string `json:"codeChallenge"`
			CodeChallengeMethod string `json:"codeChallengeMethod"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := SessionProjectionRow{
			InstanceID: env.InstanceID, ID: sessionID, UserID: payload.UserID, OrgID: payload.OrgID, State: "ACTIVE",
			FactorsJSON: "[]", TokenIDsJSON: "[]", CodeChallenge: payload.CodeChallenge, CodeChallengeMethod: payload.CodeChallengeMethod,
		}
		return db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "org_id", "state", "factors", "token_ids", "code_challenge", "code_challenge_method",
			}),
		}).Create(&row).Error

	case "session.factor.verified":
		var payload struct {
			Method string `json:"method"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		var row SessionProjectionRow
		if err := db.Where("instance_id = ? AND id = ?", env.InstanceID, sessionID).First(&row).Error; err != nil {
			return err
		}
		var factors []string
		if err := json.Unmarshal([]byte(row.FactorsJSON), &factors); err != nil {
			return err
		}
		for _, f := range factors {
			if f == payload.Method {
				return nil
			}
		}
		factors = append(factors, payload.Method)
		factorsJSON, err := json.Marshal(factors)
		if err != nil {
			return err
		}
		return db.Model(&SessionProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, sessionID).
			Update("factors", string(factorsJSON)).Error

	case "session.tokens.updated":
		var payload struct {
			TokenIDs []string `json:"tokenIds"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		tokensJSON, err := json.Marshal(payload.TokenIDs)
		if err != nil {
			return err
		}
		return db.Model(&SessionProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, sessionID).
			Update("token_ids", string(tokensJSON)).Error

	case "session.auth_time.updated":
		var payload struct {
			AuthTime int64 `json:"authTime"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Model(&SessionProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, sessionID).
			Update("auth_time", payload.AuthTime).Error

	case "session.terminated":
		return db.Model(&SessionProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, sessionID).
			Update("state", "TERMINATED").Error
	}

	return nil
}

func (p *SessionProjectionGORM) toReadModel(row SessionProjectionRow) (*SessionReadModel, error) {
	var factors []string
	if err := json.Unmarshal([]byte(row.FactorsJSON), &factors); err != nil {
		return nil, fmt.Errorf("decode factors for session %s: %w", row.ID, err)
	}
	var tokenIDs []string
	if err := json.Unmarshal([]byte(row.TokenIDsJSON), &tokenIDs); err != nil {
		return nil, fmt.Errorf("decode token ids for session %s: %w", row.ID, err)
	}
	return &SessionReadModel{
		ID: row.ID, UserID: row.UserID, OrgID: row.OrgID, State: row.State, AMR: factors,
		TokenIDs: tokenIDs, AuthTime: row.AuthTime, CodeChallenge: row.CodeChallenge, CodeChallengeMethod: row.CodeChallengeMethod,
	}, nil
}

// GetByID returns the session's read model, or nil if not found.
func (p *SessionProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*SessionReadModel, error) {
	var row SessionProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return p.toReadModel(row)
}

// ListByUser returns every session belonging to userID, active or not.
func (p *SessionProjectionGORM) ListByUser(ctx context.Context, instanceID, userID string) ([]SessionReadModel, error) {
	var rows []SessionProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND user_id = ?", instanceID, userID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions for user %s: %w", userID, err)
	}
	return p.toReadModels(rows)
}

func (p *SessionProjectionGORM) toReadModels(rows []SessionProjectionRow) ([]SessionReadModel, error) {
	out := make([]SessionReadModel, 0, len(rows))
	for _, row := range rows {
		rm, err := p.toReadModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, nil
}

// ListActiveIDsByUser returns the IDs of every ACTIVE session owned by
// userID, used by the global-logout-by-user command fan-out.
func (p *SessionProjectionGORM) ListActiveIDsByUser(ctx context.Context, instanceID, userID string) ([]string, error) {
	var ids []string
	err := p.db.WithContext(ctx).Model(&SessionProjectionRow{}).
		Where("instance_id = ? AND user_id = ? AND state = ?", instanceID, userID, "ACTIVE").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active session ids for user %s: %w", userID, err)
	}
	return ids, nil
}

// ListActiveIDsByOrg returns the IDs of every ACTIVE session scoped to
// orgID, used by the global-logout-by-org command fan-out.
func (p *SessionProjectionGORM) ListActiveIDsByOrg(ctx context.Context, instanceID, orgID string) ([]string, error) {
	var ids []string
	err := p.db.WithContext(ctx).Model(&SessionProjectionRow{}).
		Where("instance_id = ? AND org_id = ? AND state = ?", instanceID, orgID, "ACTIVE").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active session ids for org %s: %w", orgID, err)
	}
	return ids, nil
}
