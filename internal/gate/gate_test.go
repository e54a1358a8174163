package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundwave-agency/agency-server/internal/model"
)

func TestRequireRole(t *testing.T) {
	manager := &model.SessionSnapshot{AccountID: 1, Role: model.RoleManager}
	client := &model.SessionSnapshot{AccountID: 2, Role: model.RoleClient}

	tests := []struct {
		name     string
		session  *model.SessionSnapshot
		role     model.Role
		expected Decision
	}{
		{"manager reaches manager surface", manager, model.RoleManager, Decision{Admit: true}},
		{"client reaches client surface", client, model.RoleClient, Decision{Admit: true}},
		{"client denied manager surface", client, model.RoleManager, Decision{Redirect: ManagerLoginPath}},
		{"manager denied client surface", manager, model.RoleClient, Decision{Redirect: ClientLoginPath}},
		{"anonymous denied manager surface", nil, model.RoleManager, Decision{Redirect: ManagerLoginPath}},
		{"anonymous denied client surface", nil, model.RoleClient, Decision{Redirect: ClientLoginPath}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, RequireRole(tc.session, tc.role))
		})
	}
}

func TestBlockIfRole(t *testing.T) {
	manager := &model.SessionSnapshot{AccountID: 1, Role: model.RoleManager}
	client := &model.SessionSnapshot{AccountID: 2, Role: model.RoleClient}

	tests := []struct {
		name     string
		session  *model.SessionSnapshot
		role     model.Role
		expected Decision
	}{
		{"manager bounced from manager login", manager, model.RoleManager, Decision{Redirect: ManagerDashboardPath}},
		{"client bounced from client login", client, model.RoleClient, Decision{Redirect: ClientDashboardPath}},
		{"client may open manager login", client, model.RoleManager, Decision{Admit: true}},
		{"manager may open client login", manager, model.RoleClient, Decision{Admit: true}},
		{"anonymous may open login", nil, model.RoleManager, Decision{Admit: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, BlockIfRole(tc.session, tc.role))
		})
	}
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, ClientLoginPath, HomePath(nil))
	assert.Equal(t, ManagerDashboardPath, HomePath(&model.SessionSnapshot{Role: model.RoleManager}))
	assert.Equal(t, ClientDashboardPath, HomePath(&model.SessionSnapshot{Role: model.RoleClient}))
}
