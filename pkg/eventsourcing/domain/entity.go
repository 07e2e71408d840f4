package domain

// Entity is the contract an aggregate root exposes to its repository and to
// UnitOfWork: enough identity to address it in the store, plus the buffer of
// events recorded by its command handlers since it was loaded (or created).
type Entity interface {
	// GetID returns the aggregate ID of the entity.
	GetID() string

	// AggregateType returns the aggregate's type discriminator, e.g. "org",
	// "user.human", "session" — used to scope aggregate_version and Query/Push.
	AggregateType() string

	// GetSequenceNo returns the current in-memory aggregate_version,
	// including any not-yet-persisted events recorded since load. Do not use
	// this for optimistic concurrency — see ExpectedVersionAtLoad.
	GetSequenceNo() int

	// ExpectedVersionAtLoad returns the aggregate_version the entity was
	// hydrated at, before any events recorded by the current command (0 for
	// a brand-new aggregate). This is the value UnitOfWork.Track must use as
	// the base for ExpectedVersion, since GetSequenceNo() already reflects
	// Record's bump and would make every commit expect a version one (or
	// more) past what the store actually holds.
	ExpectedVersionAtLoad() int

	// GetUncommittedEvents returns events recorded but not yet persisted.
	GetUncommittedEvents() []EventEnvelope[any]

	// ClearUncommittedEvents discards the uncommitted buffer, typically called
	// after a successful Push.
	ClearUncommittedEvents()
}
