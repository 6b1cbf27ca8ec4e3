package constants

import (
	"strings"
	"testing"

	pkgconstants "hub-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	joe, bob := uuid.NewString(), uuid.NewString()

	assert.True(t, Allowed(ReadProfile, pkgconstants.User, joe, ""))
	assert.True(t, Allowed(ViewConnections, pkgconstants.User, joe, joe))
	assert.False(t, Allowed(ViewConnections, pkgconstants.User, joe, bob))
	assert.True(t, Allowed(ViewConnections, pkgconstants.Admin, joe, bob))
	assert.False(t, Allowed(RegisterUser, pkgconstants.User, joe, ""))
	assert.True(t, Allowed(RegisterUser, pkgconstants.Admin, joe, ""))
	assert.True(t, Allowed(InviteUser, pkgconstants.User, joe, joe))
	assert.False(t, Allowed(InviteUser, pkgconstants.Admin, joe, bob))
	assert.False(t, Allowed("unknown", pkgconstants.Admin, joe, joe))
}

func TestAllowed_SelfIgnoresIDCase(t *testing.T) {
	joe := uuid.NewString()

	assert.True(t, Allowed(InviteUser, pkgconstants.User, joe, strings.ToUpper(joe)))
	assert.True(t, Allowed(ViewSubscription, pkgconstants.User, joe, strings.ToUpper(joe)))
	assert.False(t, Allowed(InviteUser, pkgconstants.User, joe, "not-a-uuid"))
	assert.False(t, Allowed(InviteUser, pkgconstants.User, joe, ""))
}
