package composition

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	actionapp "github.com/iamcore/iamcore/internal/application/action"
	clientappapp "github.com/iamcore/iamcore/internal/application/clientapp"
	enckeyapp "github.com/iamcore/iamcore/internal/application/enckey"
	idpapp "github.com/iamcore/iamcore/internal/application/idp"
	notifyconfigapp "github.com/iamcore/iamcore/internal/application/notifyconfig"
	orgapp "github.com/iamcore/iamcore/internal/application/org"
	policyapp "github.com/iamcore/iamcore/internal/application/policy"
	projectapp "github.com/iamcore/iamcore/internal/application/project"
	sessionapp "github.com/iamcore/iamcore/internal/application/session"
	userapp "github.com/iamcore/iamcore/internal/application/user"
	webkeyapp "github.com/iamcore/iamcore/internal/application/webkey"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/internal/infrastructure/audit"
	"github.com/iamcore/iamcore/internal/ports"
	pkgapp "github.com/iamcore/iamcore/pkg/application"
	pkgdomain "github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
	"github.com/iamcore/iamcore/pkg/projection"
	pkginfra "github.com/iamcore/iamcore/pkg/infrastructure"
	"github.com/iamcore/iamcore/pkg/security"
)

// System is every long-lived component the composition root hands to
// cmd/iamcore: the two buses a caller issues commands/queries against, and
// the projection supervisor that must be run for read models to stay current.
type System struct {
	Commands    pkgapp.CommandBus
	Queries     pkgapp.QueryBus
	Supervisor  *projection.Supervisor
	Handlers    []projection.Handler
	EventStore  esdomain.EventStore
	Logger      pkgdomain.Logger
	Metrics     *pkgapp.InMemoryMetricsCollector
	Performance *pkginfra.PerformanceMonitor
	KeyMaterial *infrastructure.KeyMaterial
}

// Wire builds an event store, a GORM projection database, every entity's
// repository/projection/command-handler/query-handler triple, and registers
// all of them on fresh command and query buses. It does not start the
// projection supervisor — callers decide when to call Run (cmd/iamcore's
// "serve" command) versus just using the buses directly (tests, "migrate").
func Wire(ctx context.Context, cfg *Config) (*System, func() error, error) {
	logger, err := pkginfra.NewZapLogger(cfg.Logging.Dev)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := pkginfra.NewDatabase(pkginfra.DatabaseConfig{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, nil, fmt.Errorf("open projection database: %w", err)
	}
	if err := pkginfra.HealthCheck(db); err != nil {
		return nil, nil, fmt.Errorf("projection database health check: %w", err)
	}

	store, closeStore, err := buildEventStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	dispatcher := esdomain.NewEventDispatcher()
	metrics := pkgapp.NewInMemoryMetricsCollector()
	commandBus := pkgapp.NewInstrumentedCommandBus(pkgapp.NewCommandBus(), metrics)
	queryBus := pkgapp.NewInstrumentedQueryBus(pkgapp.NewQueryBus(), metrics)
	performance := pkginfra.NewPerformanceMonitor(logger)
	keyMaterial := infrastructure.NewKeyMaterial()

	idGen := ports.KSUIDGen{}
	hasher := ports.NewBcryptPasswordHasher(0)
	phones := ports.BasicPhoneNormalizer{}
	codeGen := security.NewCSPRNGCodeGen([]byte("iamcore-codegen-hash-key-32bytes"), nil)

	handlers, err := registerEntities(ctx, cfg, db, store, dispatcher, commandBus, queryBus, idGen, hasher, phones, codeGen, keyMaterial)
	if err != nil {
		return nil, nil, err
	}

	auditProjection, closeAudit, err := buildAuditProjection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if auditProjection != nil {
		handlers = append(handlers, auditProjection)
	}

	cursors := projection.NewGORMCursorStore(db)
	if err := cursors.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("migrate projection cursors: %w", err)
	}
	supervisor := projection.NewSupervisor(store, cursors, logger, 8, 200, 250*time.Millisecond)

	closeFn := func() error {
		if closeStore != nil {
			if err := closeStore(); err != nil {
				return err
			}
		}
		if closeAudit != nil {
			if err := closeAudit(); err != nil {
				return err
			}
		}
		return store.Close()
	}

	return &System{
		Commands:    commandBus,
		Queries:     queryBus,
		Supervisor:  supervisor,
		Handlers:    handlers,
		EventStore:  store,
		Logger:      logger,
		Metrics:     metrics,
		Performance: performance,
		KeyMaterial: keyMaterial,
	}, closeFn, nil
}

// buildSessionReadModel picks the session read model named by
// cfg.Sessions.ReadModel. Both backends satisfy
// infrastructure.SessionReadModelRepository and projection.Handler, so the
// rest of registerEntities doesn't need to know which one it got.
func buildSessionReadModel(ctx context.Context, db *gorm.DB, cfg *Config) (infrastructure.SessionReadModelRepository, projection.Handler, error) {
	switch cfg.Sessions.ReadModel {
	case "dynamodb":
		client := dynamodb.NewFromConfig(aws.Config{Region: cfg.Sessions.DynamoDBRegion})
		rm := infrastructure.NewSessionReadModelDynamoDB(client, cfg.Sessions.DynamoDBTable, cfg.Sessions.DynamoDBUserIdx, cfg.Sessions.DynamoDBOrgIdx)
		if err := rm.CreateTableIfNotExists(ctx); err != nil {
			return nil, nil, fmt.Errorf("create dynamodb session table: %w", err)
		}
		return rm, rm, nil
	default:
		rm := infrastructure.NewSessionProjectionGORM(db)
		if err := rm.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate session projection: %w", err)
		}
		return rm, rm, nil
	}
}

// buildAuditProjection builds the BigQuery analytics/audit export projection
// when cfg.Audit.Enabled, returning (nil, nil, nil) otherwise so callers can
// unconditionally append its result to the handler list. The returned close
// func releases the BigQuery client; it is nil when auditing is off.
func buildAuditProjection(ctx context.Context, cfg *Config) (*audit.Projection, func() error, error) {
	if !cfg.Audit.Enabled {
		return nil, nil, nil
	}
	client, err := bigquery.NewClient(ctx, cfg.Audit.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("open bigquery client: %w", err)
	}
	table := client.Dataset(cfg.Audit.DatasetID).Table(cfg.Audit.TableID)
	if _, err := table.Metadata(ctx); err != nil {
		if err := table.Create(ctx, &bigquery.TableMetadata{Schema: audit.Schema()}); err != nil {
			return nil, nil, fmt.Errorf("create audit table: %w", err)
		}
	}
	return audit.NewProjection(table.Inserter()), client.Close, nil
}

func buildEventStore(ctx context.Context, cfg *Config) (esdomain.EventStore, func() error, error) {
	switch cfg.Events.Store {
	case "memory":
		return esinfra.NewMemoryStore(), nil, nil
	case "file":
		fs, err := esinfra.NewFileStore(cfg.Events.FileDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file event store: %w", err)
		}
		return fs, nil, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Events.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres event store pool: %w", err)
		}
		pgStore := esinfra.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres event store: %w", err)
		}
		return pgStore, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event store backend: %s", cfg.Events.Store)
	}
}

// registerEntities wires all eleven entity slices and returns their
// projections so the caller can hand them to the supervisor.
func registerEntities(
	ctx context.Context,
	cfg *Config,
	db *gorm.DB,
	store esdomain.EventStore,
	dispatcher *esdomain.EventDispatcher,
	commandBus pkgapp.CommandBus,
	queryBus pkgapp.QueryBus,
	idGen ports.IDGen,
	hasher ports.PasswordHasher,
	phones ports.PhoneNormalizer,
	codeGen security.CodeGen,
	keyMaterial *infrastructure.KeyMaterial,
) ([]projection.Handler, error) {
	var handlers []projection.Handler

	orgRepo := infrastructure.NewOrgRepository(store)
	orgProjection := infrastructure.NewOrgProjectionGORM(db)
	if err := orgProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate org projection: %w", err)
	}
	orgapp.NewCommandHandlers(orgRepo, store, dispatcher, idGen, codeGen).Register(commandBus)
	orgapp.NewQueryHandlers(orgProjection).Register(queryBus)
	handlers = append(handlers, orgProjection)

	userRepo := infrastructure.NewUserRepository(store)
	userProjection := infrastructure.NewUserProjectionGORM(db)
	if err := userProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate user projection: %w", err)
	}
	userapp.NewCommandHandlers(userRepo, store, dispatcher, hasher, phones, codeGen).Register(commandBus)
	userapp.NewQueryHandlers(userProjection).Register(queryBus)
	handlers = append(handlers, userProjection)

	projectRepo := infrastructure.NewProjectRepository(store)
	projectProjection := infrastructure.NewProjectProjectionGORM(db)
	if err := projectProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate project projection: %w", err)
	}
	projectapp.NewCommandHandlers(projectRepo, store, dispatcher).Register(commandBus)
	projectapp.NewQueryHandlers(projectProjection).Register(queryBus)
	handlers = append(handlers, projectProjection)

	clientAppRepo := infrastructure.NewClientAppRepository(store)
	clientAppProjection := infrastructure.NewClientAppProjectionGORM(db)
	if err := clientAppProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate client app projection: %w", err)
	}
	clientappapp.NewCommandHandlers(clientAppRepo, store, dispatcher, clientAppProjection).Register(commandBus)
	clientappapp.NewQueryHandlers(clientAppProjection).Register(queryBus)
	handlers = append(handlers, clientAppProjection)

	sessionRepo := infrastructure.NewSessionRepository(store)
	sessionReadModel, sessionProjectionHandler, err := buildSessionReadModel(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	sessionapp.NewCommandHandlers(sessionRepo, store, dispatcher, sessionReadModel).Register(commandBus)
	sessionapp.NewQueryHandlers(sessionReadModel).Register(queryBus)
	handlers = append(handlers, sessionProjectionHandler)

	policyRepo := infrastructure.NewPolicyRepository(store)
	policyProjection := infrastructure.NewPolicyProjectionGORM(db)
	if err := policyProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate policy projection: %w", err)
	}
	policyapp.NewCommandHandlers(policyRepo, store, dispatcher, policyProjection).Register(commandBus)
	policyapp.NewQueryHandlers(policyProjection).Register(queryBus)
	handlers = append(handlers, policyProjection)

	idpRepo := infrastructure.NewIDPRepository(store)
	idpProjection := infrastructure.NewIDPProjectionGORM(db)
	if err := idpProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate idp projection: %w", err)
	}
	idpapp.NewCommandHandlers(idpRepo, store, dispatcher).Register(commandBus)
	idpapp.NewQueryHandlers(idpProjection).Register(queryBus)
	handlers = append(handlers, idpProjection)

	webKeyRepo := infrastructure.NewWebKeyRepository(store)
	webKeyProjection := infrastructure.NewWebKeyProjectionGORM(db)
	if err := webKeyProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate web key projection: %w", err)
	}
	webkeyapp.NewCommandHandlers(webKeyRepo, store, dispatcher, keyMaterial).Register(commandBus)
	webkeyapp.NewQueryHandlers(webKeyProjection).Register(queryBus)
	handlers = append(handlers, webKeyProjection)

	notifyConfigRepo := infrastructure.NewNotifyConfigRepository(store)
	notifyConfigProjection := infrastructure.NewNotifyConfigProjectionGORM(db)
	if err := notifyConfigProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate notify config projection: %w", err)
	}
	notifyconfigapp.NewCommandHandlers(notifyConfigRepo, store, dispatcher, notifyConfigProjection).Register(commandBus)
	notifyconfigapp.NewQueryHandlers(notifyConfigProjection).Register(queryBus)
	handlers = append(handlers, notifyConfigProjection)

	actionRepo := infrastructure.NewActionRepository(store)
	actionProjection := infrastructure.NewActionProjectionGORM(db)
	if err := actionProjection.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate action projection: %w", err)
	}
	actionapp.NewCommandHandlers(actionRepo, store, dispatcher).Register(commandBus)
	actionapp.NewQueryHandlers(actionProjection).Register(queryBus)
	handlers = append(handlers, actionProjection)

	// enckey is not event-sourced: its Store directly serves both command and
	// query handlers, and it contributes no projection.Handler to the
	// supervisor.
	encKeyStore := infrastructure.NewEncryptionKeyGORMStore(db)
	if err := encKeyStore.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate encryption key store: %w", err)
	}
	enckeyapp.NewCommandHandlers(encKeyStore).Register(commandBus)
	enckeyapp.NewQueryHandlers(encKeyStore).Register(queryBus)

	return handlers, nil
}
