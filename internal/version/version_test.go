package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setBuild overrides the injected build variables for one test
func setBuild(t *testing.T, version, commit string) {
	t.Helper()
	savedVersion, savedCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = savedVersion, savedCommit })
	Version, GitCommit = version, commit
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.BuildMethod)
}

func TestGetVersionString(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{"plain build", "unknown", "mailkeys 1.2.3"},
		{"short commit", "abc123", "mailkeys 1.2.3 (abc123)"},
		{"long commit truncated", "0123456789abcdef", "mailkeys 1.2.3 (01234567)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, "1.2.3", tt.commit)
			assert.Equal(t, tt.want, GetVersionString())
		})
	}
}

func TestGetBuildMethod(t *testing.T) {
	setBuild(t, "1.2.3", "abc123")
	assert.Equal(t, "make", getBuildMethod())
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		commit  string
		want    bool
	}{
		{"0.4.0", "abc123", true},
		{"0.4.0-dev", "abc123", false},
		{"0.4.0", "unknown", false},
		{"", "abc123", false},
	}
	for _, tt := range tests {
		t.Run(tt.version+"@"+tt.commit, func(t *testing.T) {
			setBuild(t, tt.version, tt.commit)
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}

func TestGetDetailedVersionString(t *testing.T) {
	setBuild(t, "0.4.0", "abc123")
	out := GetDetailedVersionString()

	lines := strings.Split(out, "\n")
	assert.Equal(t, "mailkeys 0.4.0", lines[0])
	for _, label := range []string{"Git commit: abc123", "Git branch:", "Build date:", "Built by:", "Build method: make", "Go version:", "Platform:"} {
		assert.Contains(t, out, label)
	}
	assert.False(t, strings.HasSuffix(out, "\n"))

	setBuild(t, "0.4.0-dev", "unknown")
	assert.True(t, strings.HasPrefix(GetDetailedVersionString(), "mailkeys 0.4.0-dev (development build)\n"))
}
