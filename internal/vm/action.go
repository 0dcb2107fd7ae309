package vm

// Action is what one loop iteration did.
type Action int

const (
	// ActionProcess drained one queued message.
	ActionProcess Action = iota
	// ActionSendFirst sent to the first peer only.
	ActionSendFirst
	// ActionSendSecond sent to the second peer only.
	ActionSendSecond
	// ActionSendAll sent to every peer in order.
	ActionSendAll
	// ActionInternal registered an internal event.
	ActionInternal
)

func (a Action) String() string {
	switch a {
	case ActionProcess:
		return "process"
	case ActionSendFirst:
		return "send-first"
	case ActionSendSecond:
		return "send-second"
	case ActionSendAll:
		return "send-all"
	case ActionInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// chooseAction maps a draw r in [1, actionRange] to a local action. Send
// outcomes naming a peer that does not exist become internal events.
func chooseAction(r, peers int) Action {
	switch {
	case r == 1 && peers >= 1:
		return ActionSendFirst
	case r == 2 && peers >= 2:
		return ActionSendSecond
	case r == 3 && peers >= 1:
		return ActionSendAll
	default:
		return ActionInternal
	}
}
