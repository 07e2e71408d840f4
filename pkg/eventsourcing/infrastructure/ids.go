package infrastructure

import (
	"time"

	"github.com/segmentio/ksuid"
)

// newEventID mints a time-ordered, globally unique event identifier, matching
// the ksuid convention used for aggregate and event IDs throughout the module.
func newEventID() string { return ksuid.New().String() }

// now is the store's wall clock. Kept as a seam so tests can override
// determinism at the package level if ever needed; production code never
// overrides it — ports.Clock is for domain-facing timestamps, this is purely
// an infrastructure bookkeeping stamp.
var now = time.Now
