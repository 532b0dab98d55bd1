package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/service"
)

func userWithRole(role string) *model.User {
	return &model.User{ID: 7, Name: "Actor", Role: role, IsActive: true}
}

func TestAuthorizeScan_Roles(t *testing.T) {
	events := newFakeEvents(liveEvent(10, 100))
	policy := service.NewAccessPolicy(events)

	cases := []struct {
		role    string
		allowed bool
	}{
		{model.RoleAdmin, true},
		{model.RoleEventManager, true},
		{model.RoleUser, false},
		{model.RoleSuperAdmin, false},
		{"", false},
	}
	for _, tc := range cases {
		err := policy.AuthorizeScan(context.Background(), userWithRole(tc.role), 10)
		if tc.allowed {
			assert.NoError(t, err, "role %q should scan", tc.role)
		} else {
			assert.ErrorIs(t, err, repository.ErrForbidden, "role %q should not scan", tc.role)
		}
	}
}

func TestAuthorizeScan_UnknownEvent(t *testing.T) {
	policy := service.NewAccessPolicy(newFakeEvents())
	err := policy.AuthorizeScan(context.Background(), userWithRole(model.RoleAdmin), 99)
	assert.ErrorIs(t, err, service.ErrEventNotFound)
}

func TestAuthorizeScan_NilActor(t *testing.T) {
	policy := service.NewAccessPolicy(newFakeEvents(liveEvent(10, 100)))
	err := policy.AuthorizeScan(context.Background(), nil, 10)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestAuthorizeEventCreate(t *testing.T) {
	policy := service.NewAccessPolicy(newFakeEvents())

	assert.NoError(t, policy.AuthorizeEventCreate(userWithRole(model.RoleAdmin)))
	assert.NoError(t, policy.AuthorizeEventCreate(userWithRole(model.RoleSuperAdmin)))
	assert.ErrorIs(t, policy.AuthorizeEventCreate(userWithRole(model.RoleUser)), repository.ErrForbidden)
	assert.ErrorIs(t, policy.AuthorizeEventCreate(userWithRole(model.RoleEventManager)), repository.ErrForbidden)
	assert.ErrorIs(t, policy.AuthorizeEventCreate(nil), repository.ErrForbidden)
}
