package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/riskibarqy/finboard/internal/platform/logging"
)

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Migrate(version uint) error
}

type command struct {
	name    string
	steps   int
	version int
	target  uint
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("missing command")
	}

	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]
	switch cmd.name {
	case "up", "version":
		return cmd, nil
	case "down":
		cmd.steps = 1
		if len(rest) == 0 {
			return cmd, nil
		}
		steps, err := strconv.Atoi(strings.TrimSpace(rest[0]))
		if err != nil {
			return command{}, fmt.Errorf("invalid down steps %q: %w", rest[0], err)
		}
		if steps <= 0 {
			return command{}, fmt.Errorf("down steps must be > 0")
		}
		cmd.steps = steps
		return cmd, nil
	case "force":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("force requires a version argument")
		}
		// -1 clears the version, as golang-migrate allows.
		version, err := strconv.Atoi(strings.TrimSpace(rest[0]))
		if err != nil || version < -1 {
			return command{}, fmt.Errorf("invalid force version %q", rest[0])
		}
		cmd.version = version
		return cmd, nil
	case "goto", "migrate":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("%s requires a target version argument", cmd.name)
		}
		target, err := strconv.ParseUint(strings.TrimSpace(rest[0]), 10, 64)
		if err != nil {
			return command{}, fmt.Errorf("invalid target version %q: %w", rest[0], err)
		}
		cmd.name = "goto"
		cmd.target = uint(target)
		return cmd, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
}

func run(m migrator, cmd command, logger *logging.Logger, out io.Writer) error {
	switch cmd.name {
	case "up":
		return noChangeOK(m.Up(), logger, "migrations applied")
	case "down":
		return noChangeOK(m.Steps(-cmd.steps), logger, "migrations rolled back", "steps", cmd.steps)
	case "goto":
		return noChangeOK(m.Migrate(cmd.target), logger, "migrated", "version", cmd.target)
	case "force":
		if err := m.Force(cmd.version); err != nil {
			return fmt.Errorf("force version %d: %w", cmd.version, err)
		}
		logger.Info("forced version", "version", cmd.version)
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			_, err = fmt.Fprintln(out, "version: none\ndirty: false")
			return err
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		_, err = fmt.Fprintf(out, "version: %d\ndirty: %t\n", version, dirty)
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd.name)
	}
}

func noChangeOK(err error, logger *logging.Logger, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, args...)
	return nil
}

// migrateLogger routes golang-migrate's progress lines through zap.
type migrateLogger struct {
	logger *logging.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(logging.LevelDebug)
}
