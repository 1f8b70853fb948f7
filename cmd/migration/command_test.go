package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	target  uint
	upErr   error
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, f.dirty, f.verErr
}

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.forced = version
	return nil
}

func (f *fakeMigrator) Migrate(version uint) error {
	f.calls = append(f.calls, "migrate")
	f.target = version
	return nil
}

func TestParseCommand(t *testing.T) {
	cmd, err := parseCommand([]string{"down"})
	require.NoError(t, err)
	require.Equal(t, 1, cmd.steps)

	cmd, err = parseCommand([]string{"MIGRATE", "3"})
	require.NoError(t, err)
	require.Equal(t, command{name: "goto", target: 3}, cmd)

	cmd, err = parseCommand([]string{"force", "-1"})
	require.NoError(t, err)
	require.Equal(t, -1, cmd.version)

	for _, args := range [][]string{nil, {"down", "0"}, {"force"}, {"force", "-2"}, {"goto", "x"}, {"drop"}} {
		_, err := parseCommand(args)
		require.Error(t, err, "args %v", args)
	}
}

func TestRun_DownRollsBackSteps(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, command{name: "down", steps: 2}, logging.NewNop(), &bytes.Buffer{}))
	require.Equal(t, -2, m.steps)
}

func TestRun_UpTreatsNoChangeAsSuccess(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	require.NoError(t, run(m, command{name: "up"}, logging.NewNop(), &bytes.Buffer{}))

	m.upErr = errors.New("dirty database")
	require.Error(t, run(m, command{name: "up"}, logging.NewNop(), &bytes.Buffer{}))
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	m := &fakeMigrator{verErr: migrate.ErrNilVersion}
	require.NoError(t, run(m, command{name: "version"}, logging.NewNop(), &out))
	require.Equal(t, "version: none\ndirty: false\n", out.String())

	out.Reset()
	m = &fakeMigrator{version: 1, dirty: true}
	require.NoError(t, run(m, command{name: "version"}, logging.NewNop(), &out))
	require.Equal(t, "version: 1\ndirty: true\n", out.String())
}

func TestRun_GotoAndForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, command{name: "goto", target: 1}, logging.NewNop(), &bytes.Buffer{}))
	require.NoError(t, run(m, command{name: "force", version: 0}, logging.NewNop(), &bytes.Buffer{}))
	require.Equal(t, []string{"migrate", "force"}, m.calls)
	require.Equal(t, uint(1), m.target)
}
