package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoPlayer is returned when no external player command can be found.
var ErrNoPlayer = errors.New("no audio player found on PATH")

// knownPlayers are probed in order; every entry starts playback immediately
// and exits when the file ends.
var knownPlayers = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpv", "--no-video", "--really-quiet"},
	{"afplay"},
	{"mpg123", "-q"},
	{"paplay"},
}

// CommandPlayer plays files by running an external program.
type CommandPlayer struct {
	argv []string
}

// NewCommandPlayer uses command when set, otherwise the first known player
// found via lookPath.
func NewCommandPlayer(command string, lookPath func(string) (string, error)) (*CommandPlayer, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if argv := strings.Fields(command); len(argv) > 0 {
		if _, err := lookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("player command %q: %w", argv[0], err)
		}
		return &CommandPlayer{argv: argv}, nil
	}

	for _, candidate := range knownPlayers {
		if _, err := lookPath(candidate[0]); err == nil {
			return &CommandPlayer{argv: append([]string(nil), candidate...)}, nil
		}
	}
	return nil, ErrNoPlayer
}

// Argv is the command line without the file argument.
func (p *CommandPlayer) Argv() []string { return append([]string(nil), p.argv...) }

// Play runs the player on path and waits for it to exit.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string(nil), p.argv[1:]...), path)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", p.argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", p.argv[0], err)
	}
	return nil
}
