package admin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.DefaultParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	os.Exit(m.Run())
}

var memoryEnv = map[string]string{"CHANNELAUTH_STORAGE": "memory"}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(strings.NewReader(stdin), &out, memoryEnv).Run(context.Background(), args)
	return out.String(), err
}

func TestRun_NoArgs(t *testing.T) {
	out, err := run(t, "")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "usage:")
}

func TestRun_Help(t *testing.T) {
	out, err := run(t, "", "help")
	assert.NoError(t, err)
	assert.Contains(t, out, "create-user")
}

func TestRun_Unknown(t *testing.T) {
	out, err := run(t, "", "drop")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, `unknown command "drop"`)
}

func TestHash_FromPipe(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash")
	require.NoError(t, err)

	h := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(h, "$argon2id$"), h)
	assert.True(t, cryptox.VerifyPassword("s3cret", h))
}

func TestHash_Empty(t *testing.T) {
	_, err := run(t, "\n", "hash")
	assert.Error(t, err)
}

func TestHash_Terminal(t *testing.T) {
	oldRead, oldTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTerm })
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }

	var out bytes.Buffer
	err := NewApp(os.Stdin, &out, memoryEnv).Run(context.Background(), []string{"hash"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter password: ")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, cryptox.VerifyPassword("typed", lines[len(lines)-1]))
}

func TestHash_TerminalError(t *testing.T) {
	oldRead, oldTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTerm })
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }

	err := NewApp(os.Stdin, &bytes.Buffer{}, memoryEnv).Run(context.Background(), []string{"hash"})
	assert.EqualError(t, err, "boom")
}

func TestMigrate_Memory(t *testing.T) {
	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
}

func TestMigrate_BadConfig(t *testing.T) {
	var out bytes.Buffer
	err := NewApp(strings.NewReader(""), &out, map[string]string{"CHANNELAUTH_STORAGE": "mongo"}).
		Run(context.Background(), []string{"migrate"})
	assert.ErrorContains(t, err, "invalid config")
}

func TestCreateUser(t *testing.T) {
	out, err := run(t, "pw-alice\n", "create-user",
		"-username", "Alice", "-email", "alice@example.com", "-fullname", "Alice A", "-avatar", "https://media.example/a.png")
	require.NoError(t, err)
	assert.Contains(t, out, "created user alice")
}

func TestCreateUser_MissingFields(t *testing.T) {
	_, err := run(t, "pw\n", "create-user", "-username", "alice")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestCreateUser_BadFlag(t *testing.T) {
	_, err := run(t, "", "create-user", "-nope")
	assert.ErrorIs(t, err, ErrUsage)
}
