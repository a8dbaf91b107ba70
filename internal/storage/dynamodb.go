package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/leadsplit/backend/internal/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) CreateUser(user types.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.UsersTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(Email)"),
	})
	if err != nil {
		var conditionFailed *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: failed to save user: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DynamoDBStore) GetUserByEmail(email string) (*types.User, error) {
	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.UsersTable),
		Key: map[string]dbtypes.AttributeValue{
			"Email": &dbtypes.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user: %v", ErrUnavailable, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var user types.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *DynamoDBStore) GetUser(id string) (*types.User, error) {
	// Users are keyed by email; ID lookups scan with a filter. The users
	// table is small and this path only serves /auth/me.
	filter := expression.Name("UserID").Equal(expression.Value(id))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Scan(context.Background(), &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.UsersTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan users: %v", ErrUnavailable, err)
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	var user types.User
	if err := attributevalue.UnmarshalMap(result.Items[0], &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *DynamoDBStore) CreateAgent(agent types.Agent) error {
	// DynamoDB has no per-partition unique constraint on Email, so
	// uniqueness is a read-before-write. Racing creates can slip through;
	// the memory store documents the intended semantics.
	existing, err := s.ListAgents(agent.OwnerID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Email == agent.Email {
			return ErrDuplicateEmail
		}
	}

	item, err := attributevalue.MarshalMap(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.AgentsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save agent: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DynamoDBStore) GetAgent(ownerID, agentID string) (*types.Agent, error) {
	keyCond := expression.Key("OwnerID").Equal(expression.Value(ownerID))
	filter := expression.Name("AgentID").Equal(expression.Value(agentID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.AgentsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query agent: %v", ErrUnavailable, err)
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	var agent types.Agent
	if err := attributevalue.UnmarshalMap(result.Items[0], &agent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}
	return &agent, nil
}

func (s *DynamoDBStore) ListAgents(ownerID string) ([]types.Agent, error) {
	keyCond := expression.Key("OwnerID").Equal(expression.Value(ownerID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	// SortKey encodes creation time, so Query order is roster order.
	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.AgentsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query agents: %v", ErrUnavailable, err)
	}

	var agents []types.Agent
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &agents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
	}
	return agents, nil
}

func (s *DynamoDBStore) UpdateAgent(agent types.Agent) error {
	current, err := s.GetAgent(agent.OwnerID, agent.ID)
	if err != nil {
		return err
	}

	others, err := s.ListAgents(agent.OwnerID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID != agent.ID && other.Email == agent.Email {
			return ErrDuplicateEmail
		}
	}

	// Keep the original sort key so the roster position is stable.
	agent.SortKey = current.SortKey
	agent.CreatedAt = current.CreatedAt

	item, err := attributevalue.MarshalMap(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}
	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.AgentsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to update agent: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DynamoDBStore) DeleteAgent(ownerID, agentID string) error {
	agent, err := s.GetAgent(ownerID, agentID)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.AgentsTable),
		Key: map[string]dbtypes.AttributeValue{
			"OwnerID": &dbtypes.AttributeValueMemberS{Value: ownerID},
			"SortKey": &dbtypes.AttributeValueMemberS{Value: agent.SortKey},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete agent: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DynamoDBStore) SaveAssignment(assignment types.Assignment) error {
	item, err := attributevalue.MarshalMap(assignment)
	if err != nil {
		return fmt.Errorf("failed to marshal assignment: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.AssignmentsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save assignment: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DynamoDBStore) ListAssignments(ownerID string) ([]types.Assignment, error) {
	keyCond := expression.Key("OwnerID").Equal(expression.Value(ownerID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.queryAssignments(&dynamodb.QueryInput{
		TableName:                 aws.String(s.config.AssignmentsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
}

func (s *DynamoDBStore) ListAssignmentsByAgent(ownerID, agentID string) ([]types.Assignment, error) {
	keyCond := expression.Key("OwnerID").Equal(expression.Value(ownerID))
	filter := expression.Name("AgentID").Equal(expression.Value(agentID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.queryAssignments(&dynamodb.QueryInput{
		TableName:                 aws.String(s.config.AssignmentsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
}

// queryAssignments pages through a query; assignment partitions can exceed
// the 1MB query response limit after many uploads.
func (s *DynamoDBStore) queryAssignments(input *dynamodb.QueryInput) ([]types.Assignment, error) {
	var assignments []types.Assignment
	var lastKey map[string]dbtypes.AttributeValue

	for {
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}
		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to query assignments: %v", ErrUnavailable, err)
		}

		var page []types.Assignment
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assignments: %w", err)
		}
		assignments = append(assignments, page...)

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			return assignments, nil
		}
	}
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}
