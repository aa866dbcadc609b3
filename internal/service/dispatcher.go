package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apihub/apihub/internal/metrics"
	"github.com/apihub/apihub/internal/model"
)

// MutationKind names a successful mutation that may trigger a notification.
type MutationKind string

// Mutation kinds with a notification trigger.
const (
	MutationUserDeactivated        MutationKind = "user-deactivated"
	MutationUserReactivated        MutationKind = "user-reactivated"
	MutationPasswordChangedByAdmin MutationKind = "password-changed-by-admin"
	MutationAdminMessage           MutationKind = "admin-message"
)

// Fixed notification content.
const (
	TitleAccountStatus   = "Account Status"
	TitlePasswordChanged = "Password Changed"

	MessageUserDeactivated = "Your account has been blocked by an administrator."
	MessageUserReactivated = "Your account has been unblocked. You can now login."
	MessagePasswordChanged = "Your password has been changed by an administrator. Please use your new password to login."
)

// MessagePayload carries the actor-supplied content of an admin message.
type MessagePayload struct {
	Title   string
	Message string
	Type    model.NotificationType
}

type notice struct {
	title   string
	message string
	typ     model.NotificationType
}

var templates = map[MutationKind]notice{
	MutationUserDeactivated:        {TitleAccountStatus, MessageUserDeactivated, model.NotificationWarning},
	MutationUserReactivated:        {TitleAccountStatus, MessageUserReactivated, model.NotificationSuccess},
	MutationPasswordChangedByAdmin: {TitlePasswordChanged, MessagePasswordChanged, model.NotificationWarning},
}

// Dispatcher creates the notification that accompanies a successful mutation.
//
// Dispatch runs after the mutation is persisted and is not transactional
// with it: when the notification cannot be stored the mutation stays and
// the error is returned to the caller.
type Dispatcher struct {
	store   NotificationStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(store NotificationStore, logger *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Dispatcher{
		store:   store,
		logger:  logger.With("component", "dispatcher"),
		metrics: recorder,
	}
}

// OnMutationSucceeded stores the notification for kind, addressed to subject.
// Kinds without a trigger return nil, nil. payload is read only for
// MutationAdminMessage.
func (d *Dispatcher) OnMutationSucceeded(
	ctx context.Context,
	kind MutationKind,
	subject *model.User,
	actor *model.Actor,
	payload *MessagePayload,
) (*model.Notification, error) {
	content, ok := d.content(kind, payload)
	if !ok {
		return nil, nil
	}

	n := &model.Notification{
		ID:        generateULID(),
		UserID:    subject.ID,
		Title:     content.title,
		Message:   content.message,
		Type:      content.typ,
		CreatedAt: now(),
	}
	if actor != nil {
		n.SenderID = actor.ID
	}

	if err := d.store.CreateNotification(ctx, n); err != nil {
		d.metrics.IncNotificationDispatchFailed(string(kind))
		d.logger.ErrorContext(ctx, "notification dispatch failed",
			"kind", string(kind),
			"recipient_id", subject.ID,
			"error", err,
		)
		return nil, fmt.Errorf("dispatch %s notification: %w", kind, err)
	}

	d.metrics.IncNotificationDispatched(string(kind))
	return n, nil
}

func (d *Dispatcher) content(kind MutationKind, payload *MessagePayload) (notice, bool) {
	if kind == MutationAdminMessage {
		if payload == nil {
			return notice{}, false
		}
		typ := payload.Type
		if typ == "" {
			typ = model.NotificationInfo
		}
		return notice{title: payload.Title, message: payload.Message, typ: typ}, true
	}

	t, ok := templates[kind]
	return t, ok
}
