package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/auth"
	"github.com/monstter/backoffice/internal/shared"
	"github.com/monstter/backoffice/jobs"
)

func TestParseTokenFlags(t *testing.T) {
	opts, err := ParseTokenFlags([]string{"-user", "4", "-role", "partner", "-ttl", "2h"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, TokenOptions{UserID: 4, Role: "partner", TTL: 2 * time.Hour}, opts)

	_, err = ParseTokenFlags([]string{"-role", "admin"}, io.Discard)
	assert.Error(t, err)
}

func TestIssueTokenRoundTrips(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, IssueToken("cli-secret", TokenOptions{UserID: 9, Email: "a@b.com", Role: "manager", TTL: time.Minute}, &out))

	verifier, err := auth.NewVerifier("cli-secret")
	require.NoError(t, err)
	p, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.UserID)
	assert.Equal(t, shared.RoleManager, p.Role)
}

func TestTaskFor(t *testing.T) {
	task, err := TaskFor(jobs.TaskReportsDispatch)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskReportsDispatch, task.Type())

	_, err = TaskFor("mail:send")
	assert.Error(t, err)
}

func TestNewJobsCLIRequiresAddress(t *testing.T) {
	_, err := NewJobsCLI(asynq.RedisClientOpt{})
	assert.Error(t, err)

	var nilCLI *JobsCLI
	_, err = nilCLI.Trigger(t.Context(), jobs.TaskReportsDispatch)
	assert.Error(t, err)
}
