package ride

// Event is a caller-triggered change request against a ride
type Event string

const (
	EventAssign   Event = "assign"
	EventAccept   Event = "accept"
	EventReject   Event = "reject"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// Events lists every defined event
var Events = []Event{
	EventAssign, EventAccept, EventReject,
	EventStart, EventComplete, EventCancel,
}

// Statuses lists every defined status
var Statuses = []Status{
	StatusRequested, StatusAccepted, StatusOngoing,
	StatusCompleted, StatusCancelled, StatusRejected,
}

// Actor identifies who may trigger a transition
type Actor string

const (
	// ActorAny is any authenticated principal. Assignment has no
	// caller restriction; dispatch is done on behalf of the system.
	ActorAny Actor = "any"
	// ActorAssignedDriver is the driver currently set on the ride
	ActorAssignedDriver Actor = "assigned_driver"
	// ActorRider is the rider who created the ride
	ActorRider Actor = "rider"
)

// Rule describes the outcome of one (status, event) pair
type Rule struct {
	Next           Status
	Actor          Actor
	ReleasesDriver bool
	// RequiresNoDriver gates assignment: the ride must not already
	// carry a driver reference.
	RequiresNoDriver bool
}

// transitions is the full state machine. Pairs absent from the table are
// not permitted; every lookup goes through RuleFor so the "not defined"
// outcome is explicit.
var transitions = map[Status]map[Event]Rule{
	StatusRequested: {
		// Pre-acceptance assignment: driver field populated, status unchanged.
		EventAssign: {Next: StatusRequested, Actor: ActorAny, RequiresNoDriver: true},
		EventAccept: {Next: StatusAccepted, Actor: ActorAssignedDriver},
		// Rejection is terminal for the ride and releases the driver
		// back to the pool.
		EventReject: {Next: StatusRejected, Actor: ActorAssignedDriver, ReleasesDriver: true},
		EventCancel: {Next: StatusCancelled, Actor: ActorRider, ReleasesDriver: true},
	},
	StatusAccepted: {
		EventStart:  {Next: StatusOngoing, Actor: ActorAssignedDriver},
		EventCancel: {Next: StatusCancelled, Actor: ActorRider, ReleasesDriver: true},
	},
	StatusOngoing: {
		EventComplete: {Next: StatusCompleted, Actor: ActorAssignedDriver, ReleasesDriver: true},
	},
	// completed, cancelled and rejected are terminal
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// RuleFor returns the rule for applying event to a ride in status, or
// ok=false when the pair is not permitted.
func RuleFor(status Status, event Event) (Rule, bool) {
	rules, ok := transitions[status]
	if !ok {
		return Rule{}, false
	}
	rule, ok := rules[event]
	return rule, ok
}
