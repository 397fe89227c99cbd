package docker

import (
	"context"
	"testing"

	"github.com/piforge/piforge/internal/adapters/command"
	"github.com/piforge/piforge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupLine = "docker ps -a --filter name=^homeassistant$ --format {{.ID}}\t{{.Names}}\t{{.State}}"

func TestLookupRunningContainer(t *testing.T) {
	runner := command.NewFakeRunner()
	runner.Stub(lookupLine, ports.CommandResult{Stdout: "abc123\thomeassistant\trunning\n"})

	c, err := NewCLIRuntime(runner).Lookup(context.Background(), "homeassistant")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "abc123", c.ID)
	assert.True(t, c.Running)
}

func TestLookupStoppedContainer(t *testing.T) {
	runner := command.NewFakeRunner()
	runner.Stub(lookupLine, ports.CommandResult{Stdout: "abc123\thomeassistant\texited\n"})

	c, err := NewCLIRuntime(runner).Lookup(context.Background(), "homeassistant")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Running)
}

func TestLookupNoContainer(t *testing.T) {
	runner := command.NewFakeRunner()
	runner.Stub(lookupLine, ports.CommandResult{Stdout: "\n"})

	c, err := NewCLIRuntime(runner).Lookup(context.Background(), "homeassistant")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLookupIgnoresPrefixMatches(t *testing.T) {
	// The name filter is anchored, but docker's filter is still a regex
	// match; an unexpected row with a different name must not count.
	runner := command.NewFakeRunner()
	runner.Stub(lookupLine, ports.CommandResult{Stdout: "def456\thomeassistant-old\trunning\n"})

	c, err := NewCLIRuntime(runner).Lookup(context.Background(), "homeassistant")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStopAndRemove(t *testing.T) {
	runner := command.NewFakeRunner()
	rt := NewCLIRuntime(runner)

	require.NoError(t, rt.Stop(context.Background(), "homeassistant"))
	require.NoError(t, rt.Remove(context.Background(), "homeassistant"))
	assert.Equal(t, 1, runner.CallCount("docker stop homeassistant"))
	assert.Equal(t, 1, runner.CallCount("docker rm homeassistant"))
}

func TestStopFailure(t *testing.T) {
	runner := command.NewFakeRunner()
	runner.Stub("docker stop homeassistant", ports.CommandResult{ExitCode: 1, Stderr: "no such container"})
	assert.Error(t, NewCLIRuntime(runner).Stop(context.Background(), "homeassistant"))
}
