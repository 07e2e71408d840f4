package ports

import "github.com/segmentio/ksuid"

// KSUIDGen generates KSUIDs: 27-character, lexicographically sortable,
// roughly time-ordered identifiers. Same generator the event store uses for
// event IDs (pkg/eventsourcing/infrastructure), reused here for aggregate
// IDs so every identifier in the system shares one format.
type KSUIDGen struct{}

func (KSUIDGen) NextID() string { return ksuid.New().String() }
