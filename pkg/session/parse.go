package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Command-line commands accepted by parse.
const (
	CommandAction      = "--action"
	CommandActionShort = "-a"
)

// Args is the command pair a process was started with.
type Args struct {
	Command  string
	Argument string
}

// ActionArgs selects a named action.
func ActionArgs(name string) Args {
	if name == "" {
		return Args{}
	}
	return Args{Command: CommandAction, Argument: name}
}

// Empty reports whether no command was given.
func (a Args) Empty() bool {
	return a.Command == ""
}

// ActionRunner runs a named action.
type ActionRunner interface {
	Run(ctx context.Context, name, cmd string) error
}

// Parse applies a command pair: -a/--action runs the named action, anything
// else is logged and ignored.
func Parse(ctx context.Context, runner ActionRunner, logger *slog.Logger, command, argument string) error {
	switch strings.TrimSpace(command) {
	case CommandAction, CommandActionShort:
		logger.Info("action from command", "action", argument)
		return runner.Run(ctx, argument, "")
	}
	err := fmt.Errorf("unknown command %q", command)
	logger.Warn("ignored command", "command", command, "argument", argument, "error", err)
	return err
}
