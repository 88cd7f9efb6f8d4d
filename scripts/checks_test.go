package scripts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile/profiletest"
	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/runtime"
	"github.com/jward/pscompat/scripts"
)

func newRuntime() *runtime.Runtime {
	return runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.Checks()))
}

func TestChecks_Listed(t *testing.T) {
	t.Parallel()

	names, err := newRuntime().Scripts()
	require.NoError(t, err)
	assert.Equal(t, []string{"commands.risor", "types.risor"}, names)
}

func TestChecks_Commands(t *testing.T) {
	t.Parallel()

	in := &runtime.Input{
		Targets: []*query.Profile{query.New(profiletest.Sample("linux"))},
		Commands: []string{
			"gci -Path -LP -Verbose",
			"Get-ChildItem -Nope",
			"Get-Drive -Name -vb",
			"bash",
			"Invoke-Missing",
		},
	}
	diags, err := newRuntime().Check(context.Background(), "commands.risor", in)
	require.NoError(t, err)

	require.Len(t, diags, 2)
	assert.Equal(t, runtime.Diagnostic{
		Rule:     "command-missing",
		Severity: "error",
		Target:   "linux",
		Subject:  "Invoke-Missing",
		Message:  "command Invoke-Missing is not available",
	}, diags[0])
	assert.Equal(t, "parameter-missing", diags[1].Rule)
	assert.Equal(t, "Get-ChildItem -Nope", diags[1].Subject)
}

func TestChecks_Types(t *testing.T) {
	t.Parallel()

	in := &runtime.Input{
		Targets: []*query.Profile{query.New(profiletest.Sample("a")), query.New(profiletest.Sample("b"))},
		Types:   []string{"[int]", "System.String[]", "System.Nope"},
	}
	diags, err := newRuntime().CheckAll(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, diags, 2)
	assert.Equal(t, "a", diags[0].Target)
	assert.Equal(t, "b", diags[1].Target)
	for _, d := range diags {
		assert.Equal(t, "type-missing", d.Rule)
		assert.Equal(t, "System.Nope", d.Subject)
	}
}
