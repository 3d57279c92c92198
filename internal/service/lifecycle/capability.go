package lifecycle

import "github.com/quickcab/ride-hailing/internal/domain/ride"

// CanPerform reports whether the principal is the authorized actor for the
// given event on the given ride. It checks identity and ownership only;
// state preconditions live in the transition table.
func CanPerform(p Principal, r *ride.Ride, event ride.Event) bool {
	rule, ok := ride.RuleFor(r.Status, event)
	if !ok {
		// Fall back to the actor the event requires in any state, so
		// the answer stays well-defined for illegal pairs too.
		rule.Actor = actorFor(event)
	}

	switch rule.Actor {
	case ride.ActorAny:
		return true
	case ride.ActorAssignedDriver:
		return r.IsAssignedDriver(p.ID)
	case ride.ActorRider:
		return r.RiderID == p.ID
	}
	return false
}

func actorFor(event ride.Event) ride.Actor {
	switch event {
	case ride.EventAssign:
		return ride.ActorAny
	case ride.EventCancel:
		return ride.ActorRider
	default:
		return ride.ActorAssignedDriver
	}
}
