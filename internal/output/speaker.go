// Package output speaks narration through a local synthesizer command.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/dictaform/internal/narrator"
)

// Speaker runs one synthesizer process per utterance, writing the text to
// its stdin. A newer utterance or Cancel kills the running process.
type Speaker struct {
	argv   []string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSpeaker constructs a speaker for argv, e.g. ["espeak-ng", "--stdin"].
func NewSpeaker(argv []string, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Speaker{argv: append([]string(nil), argv...), logger: logger}
}

// Speak implements narrator.Synthesizer.
func (s *Speaker) Speak(u narrator.Utterance, done func(error)) error {
	if len(s.argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	argv := append(append([]string(nil), s.argv...), voiceArgs(s.argv[0], u)...)
	wait, err := startCommandWithInput(ctx, argv, u.Text)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		err := wait()
		if ctx.Err() != nil {
			err = narrator.ErrSuperseded
		}
		cancel()
		done(err)
	}()
	return nil
}

// Cancel implements narrator.Synthesizer.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// voiceArgs maps rate, pitch, and locale onto espeak flags. Other commands
// get the text only.
func voiceArgs(bin string, u narrator.Utterance) []string {
	switch filepath.Base(bin) {
	case "espeak", "espeak-ng":
	default:
		return nil
	}

	var args []string
	if u.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(math.Round(175*u.Rate))))
	}
	if u.Pitch > 0 {
		pitch := int(math.Round(50 * u.Pitch))
		if pitch > 99 {
			pitch = 99
		}
		args = append(args, "-p", strconv.Itoa(pitch))
	}
	if u.Locale != "" {
		args = append(args, "-v", strings.ToLower(u.Locale))
	}
	return args
}

// startCommandWithInput starts argv, writes input to its stdin, and returns
// a function that waits for exit.
func startCommandWithInput(ctx context.Context, argv []string, input string) (func() error, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("start command %s: %w", argv[0], err)
	}

	return func() error {
		if input != "" {
			if _, err := stdin.Write([]byte(input)); err != nil {
				_ = stdin.Close()
				_ = cmd.Wait()
				return fmt.Errorf("write stdin for %s: %w", argv[0], err)
			}
		}
		_ = stdin.Close()

		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("wait for %s: %w", argv[0], err)
		}
		return nil
	}, nil
}
