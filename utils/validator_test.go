package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("amira.bensalah@univ.example.edu"))
	assert.True(t, ValidateEmail("a+b@sub.domain.org"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail("@nouser.example.com"))
}

func TestHasInstitutionalDomain(t *testing.T) {
	assert.True(t, HasInstitutionalDomain("a@univ.example.edu", "univ.example.edu"))
	assert.True(t, HasInstitutionalDomain("a@ENG.Univ.Example.EDU", "univ.example.edu"))
	assert.True(t, HasInstitutionalDomain("a@univ.example.edu", "@univ.example.edu"))
	assert.False(t, HasInstitutionalDomain("a@gmail.com", "univ.example.edu"))
	assert.False(t, HasInstitutionalDomain("a@evil-univ.example.edu.attacker.com", "univ.example.edu"))

	// No configured domain disables the check.
	assert.True(t, HasInstitutionalDomain("a@gmail.com", ""))
}

func TestValidatePassword(t *testing.T) {
	ok, msg := ValidatePassword("hunter2")
	assert.False(t, ok)
	assert.Equal(t, "Password must be at least 8 characters", msg)

	ok, msg = ValidatePassword("long enough passphrase")
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "hello", SanitizeInput("he\x00llo"))
}
