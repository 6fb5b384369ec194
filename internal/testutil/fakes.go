package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/upload"
)

// Recognizer returns a fixed suggestion or error.
type Recognizer struct {
	Suggestion domain.PlantSuggestion
	Err        error
	Calls      int
}

func (r *Recognizer) Identify(context.Context, *upload.Asset) (domain.PlantSuggestion, error) {
	r.Calls++
	return r.Suggestion, r.Err
}

// Assessor returns a fixed assessment or error.
type Assessor struct {
	Result json.RawMessage
	Err    error
}

func (a *Assessor) Assess(context.Context, *upload.Asset) (json.RawMessage, error) {
	return a.Result, a.Err
}

// ImageStore records uploads and returns URL.
type ImageStore struct {
	URL     string
	Err     error
	Uploads []domain.ImageUploadOptions
}

func (s *ImageStore) Upload(_ context.Context, _ *upload.Asset, opts domain.ImageUploadOptions) (string, error) {
	s.Uploads = append(s.Uploads, opts)
	if s.Err != nil {
		return "", s.Err
	}
	return s.URL, nil
}

// Assistant records prompts and returns Answer.
type Assistant struct {
	Answer string
	Err    error
	System string
	User   string
}

func (a *Assistant) Reply(_ context.Context, system, user string) (string, error) {
	a.System = system
	a.User = user
	return a.Answer, a.Err
}

// Notification is one call recorded by Notifier.
type Notification struct {
	Room         string
	Notification domain.Notification
}

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *Notifier) Notify(_ context.Context, room string, notification domain.Notification) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Room: room, Notification: notification})
	return 1
}

func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}
