package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"coffeemarket/internal/game"
)

// Command is a game command that could not reach the API and waits to be replayed.
type Command struct {
	SessionID string               `json:"session_id"`
	Command   game.CommandEnvelope `json:"command"`
	QueuedAt  time.Time            `json:"queued_at"`
}

type Queue struct {
	path string
}

func Open(dir string) *Queue {
	return &Queue{path: filepath.Join(dir, "queue.json")}
}

func (q *Queue) Load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, raw, 0o600)
}

func (q *Queue) Push(cmd Command) error {
	commands, err := q.Load()
	if err != nil {
		return err
	}
	commands = append(commands, cmd)
	return q.Save(commands)
}

// Split separates the queued commands for one session from the rest, keeping order.
func Split(commands []Command, sessionID string) (mine, others []Command) {
	for _, c := range commands {
		if c.SessionID == sessionID {
			mine = append(mine, c)
		} else {
			others = append(others, c)
		}
	}
	return mine, others
}

func Envelopes(commands []Command) []game.CommandEnvelope {
	out := make([]game.CommandEnvelope, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.Command)
	}
	return out
}
