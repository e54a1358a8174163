// Package gate decides whether a session may reach a role-scoped surface.
// Decisions are pure functions of the session snapshot.
package gate

import (
	"github.com/soundwave-agency/agency-server/internal/model"
)

const (
	ManagerLoginPath     = "/auth/manager/login"
	ManagerDashboardPath = "/manager/dashboard"
	ClientLoginPath      = "/auth/client/login"
	ClientDashboardPath  = "/client/dashboard"
)

// Decision is the outcome of a gate check. Redirect is set only on denial.
type Decision struct {
	Admit    bool
	Redirect string
}

func admit() Decision {
	return Decision{Admit: true}
}

func deny(target string) Decision {
	return Decision{Redirect: target}
}

// RequireRole admits only sessions authenticated as role. Everyone else is
// sent to that role's login page.
func RequireRole(session *model.SessionSnapshot, role model.Role) Decision {
	if session.HasRole(role) {
		return admit()
	}
	return deny(LoginPath(role))
}

// BlockIfRole keeps sessions already authenticated as role away from that
// role's login page by sending them to their dashboard.
func BlockIfRole(session *model.SessionSnapshot, role model.Role) Decision {
	if session.HasRole(role) {
		return deny(DashboardPath(role))
	}
	return admit()
}

// HomePath is where the site root sends a session.
func HomePath(session *model.SessionSnapshot) string {
	if session == nil {
		return ClientLoginPath
	}
	return DashboardPath(session.Role)
}

func LoginPath(role model.Role) string {
	if role == model.RoleManager {
		return ManagerLoginPath
	}
	return ClientLoginPath
}

func DashboardPath(role model.Role) string {
	if role == model.RoleManager {
		return ManagerDashboardPath
	}
	return ClientDashboardPath
}
