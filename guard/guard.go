// Package guard decides which view a navigation may reach for a given
// session state. It holds no state and performs no I/O; the presentation
// layer re-evaluates it on every navigation and on every session state
// transition.
package guard

import "github.com/jmcleod/deskhand/session"

// Well-known views of the split-screen client.
const (
	ViewLogin    = "login"
	ViewRegister = "register"
	ViewTasks    = "tasks"
	ViewNotes    = "notes"
	ViewSettings = "settings"
)

// DefaultView is where authenticated users land, and where the login and
// registration views send a user who is already logged in.
const DefaultView = ViewTasks

// publicViews are reachable without authentication. Views not listed
// here require an authenticated session; unknown views are treated as
// protected so a missing registry entry fails closed.
var publicViews = map[string]bool{
	ViewLogin:    true,
	ViewRegister: true,
}

// authEntryViews are the public views whose whole purpose is to obtain a
// session; they redirect away when one already exists.
var authEntryViews = map[string]bool{
	ViewLogin:    true,
	ViewRegister: true,
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allow      bool
	RedirectTo string // set when Allow is false
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(target string) Decision {
	return Decision{RedirectTo: target}
}

// Admit reports whether the view is reachable in the given session
// state. Protected views redirect to the login view whenever the
// session is not authenticated; the login and registration views
// redirect to the default view when it is.
func Admit(view string, state session.State) Decision {
	authenticated := state == session.StateAuthenticated

	if authEntryViews[view] {
		if authenticated {
			return redirect(DefaultView)
		}
		return allow()
	}
	if publicViews[view] {
		return allow()
	}
	if !authenticated {
		return redirect(ViewLogin)
	}
	return allow()
}
