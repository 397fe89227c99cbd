//go:build !windows

package command

import (
	"context"
	"testing"

	"github.com/piforge/piforge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunnerCapturesStdout(t *testing.T) {
	r := NewRealRunner()
	result, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Contains(t, result.Stdout, "hello")
}

func TestRealRunnerNonZeroExitIsNotAnError(t *testing.T) {
	r := NewRealRunner()
	result, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
}

func TestRealRunnerMissingBinary(t *testing.T) {
	r := NewRealRunner()
	_, err := r.Run(context.Background(), "definitely-not-a-binary-xyz")
	assert.Error(t, err)
}

func TestFakeRunnerScripting(t *testing.T) {
	f := NewFakeRunner()
	f.Stub("docker --version", ports.CommandResult{Stdout: "Docker version 24.0.0"})

	result, err := f.Run(context.Background(), "docker", "--version")
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "24.0.0")
	assert.Equal(t, 1, f.CallCount("docker"))
}
