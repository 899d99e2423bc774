package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/frahmantamala/mission-management/internal"
	"github.com/frahmantamala/mission-management/internal/core/events"
	"github.com/frahmantamala/mission-management/internal/mission"
	"github.com/frahmantamala/mission-management/internal/user"
)

// Mailer is the subset of the SMTP client the notifier needs.
type Mailer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

type UserGetter interface {
	GetByID(id int64) (*user.User, error)
}

type MissionGetter interface {
	GetByID(id int64) (*mission.Mission, error)
}

// Notifier turns mission events into email. Failures are logged, never
// surfaced to the request that triggered the event.
type Notifier struct {
	mailer   Mailer
	users    UserGetter
	missions MissionGetter
	from     string
	logger   *slog.Logger
}

func NewNotifier(mailer Mailer, users UserGetter, missions MissionGetter, from string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:   mailer,
		users:    users,
		missions: missions,
		from:     from,
		logger:   logger,
	}
}

// NewMailClient builds the SMTP client from config.
func NewMailClient(cfg internal.MailConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return mail.NewClient(cfg.Host, opts...)
}

// Register subscribes the notifier to the mission events it handles.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventMissionAssigned, n.HandleMissionAssigned)
	bus.Subscribe(events.EventMissionCompleted, n.HandleMissionCompleted)
}

func (n *Notifier) HandleMissionAssigned(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.EventType())
	}

	assigneeID, ok := payloadID(data, "assignee_id")
	if !ok {
		return fmt.Errorf("missing assignee_id in %s payload", event.EventType())
	}
	missionID, _ := payloadID(data, "mission_id")

	assignee, err := n.users.GetByID(assigneeID)
	if err != nil {
		return fmt.Errorf("failed to load assignee %d: %w", assigneeID, err)
	}
	if !assignee.EmailNotifications {
		n.logger.Debug("assignee opted out of email", "user_id", assigneeID)
		return nil
	}

	description, _ := data["description"].(string)
	subject := "You have been assigned a new mission"
	body := fmt.Sprintf("Hi %s,\n\nYou have been assigned a new mission", assignee.FirstName)
	if description != "" {
		body += fmt.Sprintf(": %s", description)
	}
	body += fmt.Sprintf(".\n\nMission id: %d\n", missionID)

	return n.send(ctx, assignee.NotificationAddress(), subject, body)
}

func (n *Notifier) HandleMissionCompleted(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.EventType())
	}

	missionID, ok := payloadID(data, "mission_id")
	if !ok {
		return fmt.Errorf("missing mission_id in %s payload", event.EventType())
	}

	m, err := n.missions.GetByID(missionID)
	if err != nil {
		return fmt.Errorf("failed to load mission %d: %w", missionID, err)
	}
	if m.CreatedByID == nil {
		// creator deleted, nobody to tell
		return nil
	}

	creator, err := n.users.GetByID(*m.CreatedByID)
	if err != nil {
		return fmt.Errorf("failed to load creator %d: %w", *m.CreatedByID, err)
	}
	if !creator.EmailNotifications {
		n.logger.Debug("creator opted out of email", "user_id", creator.ID)
		return nil
	}

	subject := "A mission you created was completed"
	body := fmt.Sprintf("Hi %s,\n\nMission %d", creator.FirstName, missionID)
	if m.Description != "" {
		body += fmt.Sprintf(" (%s)", m.Description)
	}
	body += " has been marked completed.\n"

	return n.send(ctx, creator.NotificationAddress(), subject, body)
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	ctx, cancel := internal.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := n.mailer.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Error("failed to send notification email", "to", to, "error", err)
		return err
	}

	n.logger.Info("notification email sent", "to", to, "subject", subject)
	return nil
}

// payloadID reads an id out of an event payload. Values arrive as int64
// in-process but as float64 after a JSON round trip, so both are handled.
func payloadID(data map[string]interface{}, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
