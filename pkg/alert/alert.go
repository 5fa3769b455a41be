package alert

import (
	"context"
	"errors"
	"fmt"
)

// Show is one show entry included in a notification.
type Show struct {
	Key        string  `json:"show_key"`
	Date       string  `json:"date"`
	Venue      string  `json:"venue"`
	Rating     float64 `json:"rating"`
	Confidence float64 `json:"confidence"`
}

// DetailsURL returns the archive.org page for a recording identifier.
func DetailsURL(identifier string) string {
	return "https://archive.org/details/" + identifier
}

// Notification is the data sent to alert destinations.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Shows []Show `json:"shows"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
