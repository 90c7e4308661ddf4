package users

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActorPermissions(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	organizer := Actor{UserID: uuid.New(), Role: RoleOrganizer, StructureID: &own}
	scanner := Actor{UserID: uuid.New(), Role: RoleScanner, StructureID: &own}
	customer := Actor{UserID: uuid.New(), Role: RoleUser}

	assert.True(t, admin.CanManageStructure(other))
	assert.True(t, organizer.CanManageStructure(own))
	assert.False(t, organizer.CanManageStructure(other))
	assert.False(t, scanner.CanManageStructure(own))
	assert.True(t, scanner.CanScanFor(own))
	assert.False(t, scanner.CanScanFor(other))
	assert.False(t, customer.CanScanFor(own))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("SCANNER"))
	assert.False(t, IsValidRole("scanner"))
	assert.False(t, IsValidRole("ROOT"))
}
