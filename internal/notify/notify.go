// Package notify delivers desktop notifications for job events by running
// the platform's notification command.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

// ErrUnsupported is returned on platforms without a notification command.
var ErrUnsupported = errors.New("desktop notifications not supported on this platform")

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	}
	return "normal"
}

// DefaultExpiry is how long non-critical notifications stay on screen.
const DefaultExpiry = 5 * time.Second

// commandTimeout bounds a single notification or sound command.
const commandTimeout = 10 * time.Second

// Notification contains data for a desktop notification.
type Notification struct {
	Title   string        // Summary text (required)
	Body    string        // Body text
	Icon    string        // Icon name or path (optional)
	Expiry  time.Duration // 0 = never expire
	Urgency Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

var icons = map[model.Status]string{
	model.Started:  "media-playback-start",
	model.Finished: "emblem-default",
	model.Failed:   "dialog-error",
}

// FromEvent builds the notification for a job event. Failures are critical
// and stay until dismissed; everything else expires after DefaultExpiry.
func FromEvent(e model.Event) Notification {
	n := Notification{
		Title:   output.Title(e),
		Body:    e.Message,
		Icon:    icons[e.Status],
		Expiry:  DefaultExpiry,
		Urgency: UrgencyNormal,
	}
	if e.Status == model.Failed {
		n.Urgency = UrgencyCritical
		n.Expiry = 0
	}
	return n
}

// Command is one external program invocation.
type Command struct {
	Name string
	Args []string
	Env  []string // extra KEY=VALUE pairs appended to the process environment
}

// Runner executes a Command to completion.
type Runner func(ctx context.Context, c Command) error

func execRunner(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	return cmd.Run()
}

// Builder renders a notification into the platform command.
type Builder func(n Notification) Command

// SoundBuilder renders the sound-playing command for a file.
type SoundBuilder func(path string) Command

// CommandNotifier shows notifications by running a platform command, and
// optionally plays a sound after each one.
type CommandNotifier struct {
	build     Builder
	buildPlay SoundBuilder
	run       Runner
	sound     string
}

// Option configures a CommandNotifier.
type Option func(*CommandNotifier)

// WithSound plays the given audio file after every notification. Best effort.
func WithSound(path string) Option {
	return func(c *CommandNotifier) { c.sound = path }
}

// WithRunner replaces command execution. Used by tests.
func WithRunner(r Runner) Option {
	return func(c *CommandNotifier) { c.run = r }
}

// WithBuilders replaces the platform command builders.
func WithBuilders(b Builder, s SoundBuilder) Option {
	return func(c *CommandNotifier) {
		c.build = b
		c.buildPlay = s
	}
}

// New creates a notifier for the current platform.
func New(opts ...Option) *CommandNotifier {
	c := &CommandNotifier{
		build:     platformCommand,
		buildPlay: platformSound,
		run:       execRunner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the notification command can be found.
func (c *CommandNotifier) Available() error {
	if c.build == nil {
		return ErrUnsupported
	}
	name := c.build(Notification{}).Name
	if name == "" {
		return ErrUnsupported
	}
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return nil
}

// Notify shows n. A sound failure is logged, not returned.
func (c *CommandNotifier) Notify(ctx context.Context, n Notification) error {
	if c.build == nil {
		return ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := c.build(n)
	if cmd.Name == "" {
		return ErrUnsupported
	}
	if err := c.run(ctx, cmd); err != nil {
		return err
	}

	if c.sound != "" && c.buildPlay != nil {
		if play := c.buildPlay(c.sound); play.Name != "" {
			if err := c.run(ctx, play); err != nil {
				slog.Debug("sound playback failed", "file", c.sound, "error", err)
			}
		}
	}
	return nil
}

// LogNotifier records notifications in the log instead of showing them.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("notification", "title", n.Title, "body", n.Body, "urgency", n.Urgency.String())
	return nil
}

// Output adapts a Notifier to output.Output.
type Output struct {
	notifier Notifier
}

// NewOutput wraps n.
func NewOutput(n Notifier) *Output {
	return &Output{notifier: n}
}

func (o *Output) Write(ctx context.Context, event model.Event) error {
	return o.notifier.Notify(ctx, FromEvent(event))
}

func (o *Output) Close() error {
	return nil
}
