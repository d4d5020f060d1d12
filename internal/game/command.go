package game

import (
	"fmt"
	"strings"
)

const (
	CommandPlayRound   = "play_round"
	CommandAcquire     = "acquire"
	CommandSetSettings = "set_settings"
)

// Command is one player action against a session.
type Command interface {
	Name() string
}

type PlayRound struct{}

type Acquire struct {
	CompetitorID int
}

type SetSettings struct {
	Settings PlayerSettings
}

func (PlayRound) Name() string   { return CommandPlayRound }
func (Acquire) Name() string     { return CommandAcquire }
func (SetSettings) Name() string { return CommandSetSettings }

// Apply runs a command against the session.
func (s *Session) Apply(cmd Command) (Outcome, error) {
	switch c := cmd.(type) {
	case PlayRound:
		return s.PlayRound(), nil
	case Acquire:
		return s.Acquire(c.CompetitorID)
	case SetSettings:
		return s.SetSettings(c.Settings), nil
	case nil:
		return Outcome{}, fmt.Errorf("%w: nil", ErrUnknownCommand)
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}
}

// CommandEnvelope is the wire form of a Command.
type CommandEnvelope struct {
	Type         string          `json:"type"`
	CompetitorID int             `json:"competitor_id,omitempty"`
	Settings     *PlayerSettings `json:"settings,omitempty"`
}

func (e CommandEnvelope) Command() (Command, error) {
	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case CommandPlayRound:
		return PlayRound{}, nil
	case CommandAcquire:
		return Acquire{CompetitorID: e.CompetitorID}, nil
	case CommandSetSettings:
		if e.Settings == nil {
			return nil, fmt.Errorf("%w: settings are required", ErrInvalidSettings)
		}
		return SetSettings{Settings: *e.Settings}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, e.Type)
	}
}

func Envelope(cmd Command) CommandEnvelope {
	switch c := cmd.(type) {
	case Acquire:
		return CommandEnvelope{Type: CommandAcquire, CompetitorID: c.CompetitorID}
	case SetSettings:
		settings := c.Settings
		return CommandEnvelope{Type: CommandSetSettings, Settings: &settings}
	default:
		return CommandEnvelope{Type: commandName(cmd)}
	}
}
