package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// sessionDynamoItem is the single-table item shape: InstanceID partitions
// the table, ID sorts within it, and the two GSI partition keys let
// ListByUser/ListActiveIDsByUser/ListActiveIDsByOrg avoid a table scan.
type sessionDynamoItem struct {
	InstanceID          string `dynamodbav:"instance_id"`
	ID                  string `dynamodbav:"id"`
	UserKey             string `dynamodbav:"user_key"` // instanceID#userID, GSI partition key
	OrgKey              string `dynamodbav:"org_key"`  // instanceID#orgID, GSI partition key
	UserID              string `dynamodbav:"user_id"`
	OrgID               string `dynamodbav:"org_id"`
	State               string `dynamodbav:"state"`
	FactorsJSON         string `dynamodbav:"factors"`
	TokenIDsJSON        string `dynamodbav:"token_ids"`
	AuthTime            int64  `dynamodbav:"auth_time"`
	CodeChallenge       string `dynamodbav:"code_challenge"`
	CodeChallengeMethod string `dynamodbav:"code_challenge_method"`
}

// SessionReadModelDynamoDB is the low-latency alternative to
// SessionProjectionGORM: same projection.Handler contract (so the
// supervisor runs it exactly like any other projection), same
// SessionReadModelRepository contract (so it's a drop-in for both
// internal/application/session.CommandHandlers and QueryHandlers), but
// point lookups go straight to DynamoDB instead of a SQL table scan.
type SessionReadModelDynamoDB struct {
	client    *dynamodb.Client
	table     string
	userIndex string
	orgIndex  string
}

// NewSessionReadModelDynamoDB wires a DynamoDB-backed session read model.
// userIndex/orgIndex name the GSIs whose partition key is user_key/org_key
// respectively — see CreateTableIfNotExists for the shape this expects.
func NewSessionReadModelDynamoDB(client *dynamodb.Client, table, userIndex, orgIndex string) *SessionReadModelDynamoDB {
	return &SessionReadModelDynamoDB{client: client, table: table, userIndex: userIndex, orgIndex: orgIndex}
}

// CreateTableIfNotExists is this store's analogue of the GORM
// projections' Migrate: DynamoDB tables are usually provisioned by
// infrastructure-as-code rather than application code, but creating one
// on demand keeps local/dev runs and the composition root's "migrate"
// command symmetric with every other projection.
func (s *SessionReadModelDynamoDB) CreateTableIfNotExists(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.table})
	if err == nil {
		return nil
	}
	if !isResourceNotFound(err) {
		return fmt.Errorf("describe table %s: %w", s.table, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   &s.table,
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: strPtr("instance_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: strPtr("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: strPtr("user_key"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: strPtr("org_key"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: strPtr("instance_id"), KeyType: types.KeyTypeHash},
			{AttributeName: strPtr("id"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName:  &s.userIndex,
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				KeySchema: []types.KeySchemaElement{
					{AttributeName: strPtr("user_key"), KeyType: types.KeyTypeHash},
				},
			},
			{
				IndexName:  &s.orgIndex,
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				KeySchema: []types.KeySchemaElement{
					{AttributeName: strPtr("org_key"), KeyType: types.KeyTypeHash},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func isResourceNotFound(err error) bool {
	type resourceNotFounder interface{ ErrorCode() string }
	rnf, ok := err.(resourceNotFounder)
	return ok && rnf.ErrorCode() == "ResourceNotFoundException"
}

func (s *SessionReadModelDynamoDB) Name() string { return "session_projection_dynamodb" }

func (s *SessionReadModelDynamoDB) EventTypes() []string {
	return []string{
		"session.added", "session.factor.verified", "session.tokens.updated",
		"session.auth_time.updated", "session.terminated",
	}
}

func (s *SessionReadModelDynamoDB) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := s.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for session %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (s *SessionReadModelDynamoDB) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	sessionID := env.AggregateID

	if env.EventType == "session.added" {
		var payload struct {
			UserID              string `json:"userId"`
			OrgID               string `json:"orgId"`
			CodeChallenge       string `json:"codeChallenge"`
			CodeChallengeMethod string `json:"codeChallengeMethod"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		item := sessionDynamoItem{
			InstanceID: env.InstanceID, ID: sessionID,
			UserKey: env.InstanceID + "#" + payload.UserID, OrgKey: env.InstanceID + "#" + payload.OrgID,
			UserID: payload.UserID, OrgID: payload.OrgID, State: "ACTIVE",
			FactorsJSON: "[]", TokenIDsJSON: "[]",
			CodeChallenge: payload.CodeChallenge, CodeChallengeMethod: payload.CodeChallengeMethod,
		}
		return s.put(ctx, item)
	}

	item, err := s.getItem(ctx, env.InstanceID, sessionID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("session %s not found for event %s", sessionID, env.EventType)
	}

	switch env.EventType {
	case "session.factor.verified":
		var payload struct {
			Method string `json:"method"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		var factors []string
		if err := json.Unmarshal([]byte(item.FactorsJSON), &factors); err != nil {
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
		item.FactorsJSON = string(factorsJSON)

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
		item.TokenIDsJSON = string(tokensJSON)

	case "session.auth_time.updated":
		var payload struct {
			AuthTime int64 `json:"authTime"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		item.AuthTime = payload.AuthTime

	case "session.terminated":
		item.State = "TERMINATED"

	default:
		return nil
	}

	return s.put(ctx, *item)
}

func (s *SessionReadModelDynamoDB) put(ctx context.Context, item sessionDynamoItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal session item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &s.table, Item: av})
	if err != nil {
		return fmt.Errorf("put session item: %w", err)
	}
	return nil
}

func (s *SessionReadModelDynamoDB) getItem(ctx context.Context, instanceID, id string) (*sessionDynamoItem, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"instance_id": instanceID, "id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal session key: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &s.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("get session item: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item sessionDynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal session item: %w", err)
	}
	return &item, nil
}

func toSessionReadModel(item sessionDynamoItem) (*SessionReadModel, error) {
	var factors []string
	if err := json.Unmarshal([]byte(item.FactorsJSON), &factors); err != nil {
		return nil, fmt.Errorf("decode factors for session %s: %w", item.ID, err)
	}
	var tokenIDs []string
	if err := json.Unmarshal([]byte(item.TokenIDsJSON), &tokenIDs); err != nil {
		return nil, fmt.Errorf("decode token ids for session %s: %w", item.ID, err)
	}
	return &SessionReadModel{
		ID: item.ID, UserID: item.UserID, OrgID: item.OrgID, State: item.State, AMR: factors,
		TokenIDs: tokenIDs, AuthTime: item.AuthTime, CodeChallenge: item.CodeChallenge, CodeChallengeMethod: item.CodeChallengeMethod,
	}, nil
}

// GetByID satisfies SessionReadModelRepository via a single GetItem call.
func (s *SessionReadModelDynamoDB) GetByID(ctx context.Context, instanceID, id string) (*SessionReadModel, error) {
	item, err := s.getItem(ctx, instanceID, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if item == nil {
		return nil, nil
	}
	return toSessionReadModel(*item)
}

// ListByUser queries the user_key GSI instead of scanning the table.
func (s *SessionReadModelDynamoDB) ListByUser(ctx context.Context, instanceID, userID string) ([]SessionReadModel, error) {
	items, err := s.queryByUser(ctx, instanceID, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list sessions for user %s: %w", userID, err)
	}
	out := make([]SessionReadModel, 0, len(items))
	for _, it := range items {
		rm, err := toSessionReadModel(it)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, nil
}

// ListActiveIDsByUser queries the user_key GSI filtered to ACTIVE sessions.
func (s *SessionReadModelDynamoDB) ListActiveIDsByUser(ctx context.Context, instanceID, userID string) ([]string, error) {
	items, err := s.queryByUser(ctx, instanceID, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list active session ids for user %s: %w", userID, err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids, nil
}

// ListActiveIDsByOrg queries the org_key GSI filtered to ACTIVE sessions.
func (s *SessionReadModelDynamoDB) ListActiveIDsByOrg(ctx context.Context, instanceID, orgID string) ([]string, error) {
	key, err := attributevalue.MarshalMap(map[string]string{":pk": instanceID + "#" + orgID, ":active": "ACTIVE"})
	if err != nil {
		return nil, fmt.Errorf("marshal org query key: %w", err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 &s.table,
		IndexName:                 &s.orgIndex,
		KeyConditionExpression:    strPtr("org_key = :pk"),
		FilterExpression:          strPtr("#state = :active"),
		ExpressionAttributeNames:  map[string]string{"#state": "state"},
		ExpressionAttributeValues: key,
	})
	if err != nil {
		return nil, fmt.Errorf("list active session ids for org %s: %w", orgID, err)
	}
	var items []sessionDynamoItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal session items: %w", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids, nil
}

func (s *SessionReadModelDynamoDB) queryByUser(ctx context.Context, instanceID, userID string, activeOnly bool) ([]sessionDynamoItem, error) {
	values := map[string]string{":pk": instanceID + "#" + userID}
	if activeOnly {
		values[":active"] = "ACTIVE"
	}
	key, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, fmt.Errorf("marshal user query key: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 &s.table,
		IndexName:                 &s.userIndex,
		KeyConditionExpression:    strPtr("user_key = :pk"),
		ExpressionAttributeValues: key,
	}
	if activeOnly {
		input.FilterExpression = strPtr("#state = :active")
		input.ExpressionAttributeNames = map[string]string{"#state": "state"}
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	var items []sessionDynamoItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal session items: %w", err)
	}
	return items, nil
}
