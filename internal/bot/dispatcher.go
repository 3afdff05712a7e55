package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/slavuta-ads/adsbot/internal/access"
	"github.com/slavuta-ads/adsbot/internal/db"
	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/observability"
	"github.com/slavuta-ads/adsbot/internal/policy/permissions"
)

type Options struct {
	Language    string
	Channel     string
	PaymentCard string
	Location    *time.Location
}

// Dispatcher is the single entry point for inbound events. It applies the
// access gate, routes operator commands through the role check and hands
// everything else to the session machine.
type Dispatcher struct {
	gate     Gate
	sessions Sessions
	sender   notify.Sender
	roster   *permissions.Roster
	daily    StatsSource
	audit    AuditLog
	opts     Options
	commands map[string]command
}

func NewDispatcher(
	gate Gate,
	sessions Sessions,
	sender notify.Sender,
	roster *permissions.Roster,
	daily StatsSource,
	audit AuditLog,
	opts Options,
) *Dispatcher {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	d := &Dispatcher{
		gate:     gate,
		sessions: sessions,
		sender:   sender,
		roster:   roster,
		daily:    daily,
		audit:    audit,
		opts:     opts,
	}
	d.commands = d.commandTable()
	return d
}

func (d *Dispatcher) getLogEntry() *log.Entry {
	return log.WithField("object", "Dispatcher")
}

// Handle processes one event. It never panics on handler failures; the bus
// recovers anything that slips through.
func (d *Dispatcher) Handle(ctx context.Context, ev event.Event) {
	ctx, span := observability.Tracer().Start(ctx, "dispatch", oteltrace.WithAttributes(
		attribute.String("event.kind", string(ev.Kind)),
		attribute.Int64("user.id", ev.UserID),
	))
	defer span.End()
	defer observability.StartEvent(string(ev.Kind))()

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	decision := d.gate.Admit(ev.UserID, ev.Time)
	if !decision.Allowed {
		observability.RecordEvent(string(ev.Kind), "denied")
		span.SetAttributes(attribute.Bool("gate.denied", true))
		d.reply(ctx, ev, access.DenialText(decision, d.opts.Language))
		return
	}
	if decision.Expired {
		if err := d.gate.Expire(ctx, ev.UserID, ev.Time); err != nil {
			d.getLogEntry().WithFields(log.Fields{
				"user_id": ev.UserID,
				"error":   err.Error(),
			}).Error("cant remove expired ban")
		}
	}
	observability.RecordEvent(string(ev.Kind), "allowed")

	if ev.Kind == event.KindCommand {
		if cmd, ok := d.commands[ev.Command]; ok {
			span.SetAttributes(attribute.String("command", ev.Command))
			if err := d.runCommand(ctx, ev, cmd); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return
		}
	}
	d.sessions.Handle(ctx, ev)
}

func (d *Dispatcher) runCommand(ctx context.Context, ev event.Event, cmd command) error {
	entry := d.getLogEntry().WithFields(log.Fields{
		"command": ev.Command,
		"user_id": ev.UserID,
	})

	if !d.roster.Allows(ev.UserID, cmd.role) {
		entry.Info("permission denied")
		d.reply(ctx, ev, d.permissionText(cmd.role))
		return fmt.Errorf("%w: /%s requires %s", apperrors.ErrPermission, ev.Command, cmd.role)
	}

	err := cmd.run(ctx, call{Event: ev, usage: cmd.usage})
	var usageErr *apperrors.UsageError
	switch {
	case err == nil:
		entry.Debug("command done")
	case errors.As(err, &usageErr):
		entry.WithField("args", ev.Args).Debug("malformed arguments")
		d.reply(ctx, ev, fmt.Sprintf(i18n.Get("❗Usage: %s", d.opts.Language), usageErr.Usage))
	default:
		entry.WithField("error", err.Error()).Error("command failed")
		d.reply(ctx, ev, fmt.Sprintf(i18n.Get("❌ Command failed: %s", d.opts.Language), err.Error()))
	}
	return err
}

func (d *Dispatcher) permissionText(role permissions.Role) string {
	if role == permissions.RoleAdmin {
		return i18n.Get("⚠️ This command is only available to admins.", d.opts.Language)
	}
	return i18n.Get("⚠️ This command is only available to moderators.", d.opts.Language)
}

func (d *Dispatcher) reply(ctx context.Context, ev event.Event, text string) {
	_ = notify.Deliver(ctx, d.sender, notify.Text(ev.ChatID, text))
}

func (d *Dispatcher) record(ctx context.Context, ev event.Event, userID int64, action, detail string) {
	if d.audit == nil {
		return
	}
	err := d.audit.InsertModerationRecord(ctx, &db.ModerationRecord{
		ActorID:   ev.UserID,
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		CreatedAt: ev.Time,
	})
	if err != nil {
		d.getLogEntry().WithFields(log.Fields{
			"action":  action,
			"user_id": userID,
			"error":   err.Error(),
		}).Error("cant write moderation record")
	}
}

func (d *Dispatcher) localTime(t time.Time) string {
	return t.In(d.opts.Location).Format("02.01.2006 15:04")
}
