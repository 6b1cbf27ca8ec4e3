package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("newuser@foo.com"))
	assert.False(t, IsValidEmail("newuser@foo"))
	assert.False(t, IsValidEmail("new user@foo.com"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "joe@foo.com", NormalizeEmail("  Joe@Foo.COM "))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("verysecret1"))
	assert.False(t, IsValidPassword("verysecret"))
	assert.False(t, IsValidPassword("s3cret"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("mr"))
	assert.True(t, IsValidName("Anne-Marie O'Neil"))
	assert.False(t, IsValidName("   "))
	assert.False(t, IsValidName("bob<script>"))
}
