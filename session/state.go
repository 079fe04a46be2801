package session

// State is the lifecycle state of the client session. It is the authority
// every other component consults for "is the user logged in".
type State string

const (
	// StateAnonymous is the initial state at process start, and the state
	// after an explicit logout or a failed credential exchange.
	StateAnonymous State = "anonymous"
	// StateAuthenticating means a credential exchange is in flight. At
	// most one exchange may be in flight at a time.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means the credential exchange succeeded and the
	// credential store holds a live token.
	StateAuthenticated State = "authenticated"
	// StateExpired means the server rejected the credential. It never
	// resolves itself; only a fresh login attempt leaves it.
	StateExpired State = "expired"
)

// transitions is the set of allowed state changes. Anything not listed
// here is a programming error surfaced as ErrInvalidTransition.
var transitions = map[State]map[State]struct{}{
	StateAnonymous: {
		StateAuthenticating: {},
	},
	StateAuthenticating: {
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
	StateAuthenticated: {
		StateAnonymous: {},
		StateExpired:   {},
	},
	StateExpired: {
		StateAuthenticating: {},
	},
}

func canTransition(from, to State) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
