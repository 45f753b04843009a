package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Publish runs the application's build/publish command in dir so deployable
// bits exist before the proxy is configured. An empty command is a no-op.
func Publish(ctx context.Context, dir, command string, logger *slog.Logger) error {
	args, err := parseCommand(command)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	logger.Info("publishing application", "command", command, "dir", dir)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		logger.Debug("publish output", "output", string(output))
	}
	if err != nil {
		return fmt.Errorf("publish command %s failed: %w", command, err)
	}
	return nil
}

func parseCommand(command string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
	)
	for _, r := range strings.TrimSpace(command) {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %s", command)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
