package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, DevVersion, GetCurrentVersion("demo"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	cases := []struct {
		version  string
		target   string
		expected bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.2.0", "1.0.0", true},
		{"1.0.0", "1.2.0", false},
		{"2.0.0", "1.9.9", true},
		{"0.9.0", "1.0.0", false},
		{"1.0.0-dev", "1.0.0", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, IsVersionGreaterOrEqualThan(c.version, c.target),
			"version=%s target=%s", c.version, c.target)
	}
}
