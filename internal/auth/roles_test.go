package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanReceiveTaskPush(t *testing.T) {
	assert.True(t, CanReceiveTaskPush(RoleAdmin))
	assert.True(t, CanReceiveTaskPush(RoleStaff))
	assert.False(t, CanReceiveTaskPush(RoleGuest))
	assert.False(t, CanReceiveTaskPush(Role("")))
}

func TestCanClearTasks(t *testing.T) {
	assert.True(t, CanClearTasks(RoleAdmin))
	assert.False(t, CanClearTasks(RoleStaff))
	assert.False(t, CanClearTasks(RoleGuest))
}
