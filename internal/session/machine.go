package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pborman/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/i18n"
	"github.com/slavuta-ads/adsbot/internal/listing"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/observability"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

type (
	Limiter interface {
		CheckAndConsume(userID int64, kind db.LimitKind, now time.Time) bool
	}

	Advisor interface {
		Advise(ctx context.Context, text string) string
	}

	Config struct {
		Language   string
		Admins     []int64
		Moderators []int64
		Renderer   listing.Renderer
		// HintWait bounds how long Finish waits for a pending screening hint.
		HintWait time.Duration
	}
)

const DefaultHintWait = 2 * time.Second

// Machine drives the per-user intake conversation. Callers must deliver the
// events of one user sequentially; different users may be handled in parallel.
type Machine struct {
	limiter  Limiter
	sender   notify.Sender
	daily    *stats.Daily
	advisor  Advisor
	cfg      Config
	sessions *xsync.MapOf[int64, *Session]
}

func NewMachine(limiter Limiter, sender notify.Sender, daily *stats.Daily, advisor Advisor, cfg Config) *Machine {
	if cfg.HintWait <= 0 {
		cfg.HintWait = DefaultHintWait
	}
	return &Machine{
		limiter:  limiter,
		sender:   sender,
		daily:    daily,
		advisor:  advisor,
		cfg:      cfg,
		sessions: xsync.NewMapOf[int64, *Session](),
	}
}

func (m *Machine) getLogEntry(ev event.Event) *log.Entry {
	return log.WithFields(log.Fields{
		"object":  "SessionMachine",
		"user_id": ev.UserID,
	})
}

func (m *Machine) State(userID int64) State {
	if s, ok := m.sessions.Load(userID); ok {
		return s.State
	}
	return StateIdle
}

// Active reports how many users are in a non-idle state.
func (m *Machine) Active() int {
	return m.sessions.Size()
}

func (m *Machine) Handle(ctx context.Context, ev event.Event) {
	if ev.Kind == event.KindCommand {
		switch ev.Command {
		case "start":
			m.toIdle(ctx, ev)
			return
		case "report":
			m.beginReport(ctx, ev)
			return
		}
	}

	s, ok := m.sessions.Load(ev.UserID)
	if !ok {
		m.handleIdle(ctx, ev)
		return
	}
	switch s.State {
	case StateAwaitingReport:
		m.handleReport(ctx, ev, s)
	case StateAwaitingPhotos:
		m.handlePhotos(ctx, ev, s)
	default:
		m.handleIdle(ctx, ev)
	}
}

func (m *Machine) reply(ctx context.Context, ev event.Event, text string, keyboard notify.Keyboard) {
	_ = notify.Deliver(ctx, m.sender, notify.Message{
		ChatID:   ev.ChatID,
		Text:     text,
		Keyboard: keyboard,
	})
}

func (m *Machine) toIdle(ctx context.Context, ev event.Event) {
	m.sessions.Delete(ev.UserID)
	m.reply(ctx, ev, i18n.Get("Choose a category:", m.cfg.Language), notify.KeyboardMenu)
}

func (m *Machine) handleIdle(ctx context.Context, ev event.Event) {
	if ev.Kind == event.KindForm {
		m.submitForm(ctx, ev)
		return
	}
	m.reply(ctx, ev, i18n.Get("Choose a category:", m.cfg.Language), notify.KeyboardMenu)
}

func (m *Machine) beginReport(ctx context.Context, ev event.Event) {
	m.sessions.Store(ev.UserID, awaitingReport())
	m.reply(ctx, ev, i18n.Get("Write your request in a single message and an administrator will contact you soon.", m.cfg.Language), notify.KeyboardReport)
}

func (m *Machine) handleReport(ctx context.Context, ev event.Event, s *Session) {
	if ev.Kind != event.KindText {
		m.reply(ctx, ev, i18n.Get("Please send your request as a text message.", m.cfg.Language), notify.KeyboardReport)
		return
	}

	switch ev.Text {
	case i18n.Get("Back", m.cfg.Language):
		m.toIdle(ctx, ev)
	case i18n.Get("Submit", m.cfg.Language):
		m.submitReport(ctx, ev, s)
	default:
		s.report.text = ev.Text
		m.reply(ctx, ev, fmt.Sprintf(
			i18n.Get("Message saved. Press '%s' to send it or '%s' to cancel.", m.cfg.Language),
			i18n.Get("Submit", m.cfg.Language), i18n.Get("Back", m.cfg.Language),
		), notify.KeyboardReport)
	}
}

func (m *Machine) submitReport(ctx context.Context, ev event.Event, s *Session) {
	if s.report.text == "" {
		m.reply(ctx, ev, i18n.Get("Please write your request first.", m.cfg.Language), notify.KeyboardReport)
		return
	}

	m.sessions.Delete(ev.UserID)
	if !m.limiter.CheckAndConsume(ev.UserID, db.LimitReport, ev.Time) {
		m.reply(ctx, ev, i18n.Get("The daily limit of requests to administrators is exhausted, please try again tomorrow.", m.cfg.Language), notify.KeyboardMenu)
		return
	}

	text := fmt.Sprintf(
		i18n.Get("New request!\nID: %d\nName: %s\nUsername: @%s\nRequest: %s", m.cfg.Language),
		ev.UserID, ev.Profile.FullName(), authorOf(ev).Handle(), s.report.text,
	)
	failed := notify.Broadcast(ctx, m.sender, m.cfg.Admins, notify.Text(0, text))
	m.getLogEntry(ev).WithField("failed_admins", len(failed)).Info("report forwarded")

	m.reply(ctx, ev, i18n.Get("Thank you for your request, administrators are already processing it.", m.cfg.Language), notify.KeyboardMenu)
}

func (m *Machine) submitForm(ctx context.Context, ev event.Event) {
	form, err := listing.Parse(ev.Payload)
	if err != nil {
		m.getLogEntry(ev).WithField("error", err.Error()).Warn("malformed form payload")
		m.sessions.Delete(ev.UserID)
		m.reply(ctx, ev, i18n.Get("Sorry, an error occurred while processing the form. Please try again later.", m.cfg.Language), notify.KeyboardMenu)
		return
	}

	if !m.limiter.CheckAndConsume(ev.UserID, db.LimitPost, ev.Time) {
		m.reply(ctx, ev, i18n.Get("You have reached today's listing limit. To publish more listings, contact the administration via /report", m.cfg.Language), notify.KeyboardMenu)
		return
	}

	m.daily.Increment(form.Type)
	observability.RecordSubmission(string(form.Type))

	draft := &listingDraft{
		id:   uuid.New(),
		form: form,
	}
	draft.moderation = m.cfg.Renderer.Render(form, authorOf(ev), draft.id)
	if m.advisor != nil {
		advice := make(chan string, 1)
		summary := form.Summary()
		go func() { advice <- m.advisor.Advise(ctx, summary) }()
		draft.advice = advice
	}
	m.sessions.Store(ev.UserID, awaitingPhotos(draft))
	m.getLogEntry(ev).WithFields(log.Fields{
		"form_type": form.Type,
		"ref":       draft.id,
	}).Info("form accepted")

	m.reply(ctx, ev, fmt.Sprintf(
		i18n.Get("Now you can add photos to your listing (up to %d photos).\nSend the photos one at a time.\nWhen you are done, press '%s' ⬇️", m.cfg.Language),
		MaxPhotos, i18n.Get("Finish", m.cfg.Language),
	), notify.KeyboardPhotos)
}

func (m *Machine) handlePhotos(ctx context.Context, ev event.Event, s *Session) {
	switch {
	case ev.Kind == event.KindPhoto:
		m.addPhoto(ctx, ev, s)
	case ev.Kind == event.KindText && ev.Text == i18n.Get("Finish", m.cfg.Language):
		m.finish(ctx, ev, s)
	default:
		m.reply(ctx, ev, fmt.Sprintf(i18n.Get("Send photos or press '%s' to finish.", m.cfg.Language), i18n.Get("Finish", m.cfg.Language)), notify.KeyboardPhotos)
	}
}

func (m *Machine) addPhoto(ctx context.Context, ev event.Event, s *Session) {
	draft := s.listing
	if len(draft.photos) >= MaxPhotos {
		m.reply(ctx, ev, fmt.Sprintf(
			i18n.Get("You have already added the maximum number of photos (%d).\nPress '%s' to publish the listing.", m.cfg.Language),
			MaxPhotos, i18n.Get("Finish", m.cfg.Language),
		), notify.KeyboardPhotos)
		return
	}
	draft.photos = append(draft.photos, ev.PhotoFileID)
	m.reply(ctx, ev, fmt.Sprintf(
		i18n.Get("Photo added! (%d/%d)\nYou can add more photos or press '%s'.", m.cfg.Language),
		len(draft.photos), MaxPhotos, i18n.Get("Finish", m.cfg.Language),
	), notify.KeyboardPhotos)
}

func (m *Machine) finish(ctx context.Context, ev event.Event, s *Session) {
	m.sessions.Delete(ev.UserID)
	draft := s.listing
	if draft == nil || draft.moderation == "" {
		m.reply(ctx, ev, i18n.Get("Something went wrong. Please start over with /start", m.cfg.Language), notify.KeyboardMenu)
		return
	}

	text, screened := draft.moderationText(m.cfg.HintWait)
	if !screened {
		m.getLogEntry(ev).WithField("ref", draft.id).Info("screening hint not ready, sending without it")
	}

	author := authorOf(ev)
	caption := fmt.Sprintf(i18n.Get("Photo from: %s (@%s)", m.cfg.Language), author.FullName(), author.Handle())
	failed := notify.FanOut(ctx, m.cfg.Moderators, func(ctx context.Context, moderator int64) error {
		if err := notify.Deliver(ctx, m.sender, notify.Message{
			ChatID:    moderator,
			Text:      text,
			ParseMode: notify.ParseModeHTML,
		}); err != nil {
			return err
		}
		var photoErr error
		for _, photo := range draft.photos {
			if err := notify.Deliver(ctx, m.sender, notify.Message{
				ChatID:      moderator,
				PhotoFileID: photo,
				Text:        caption,
			}); err != nil {
				photoErr = err
			}
		}
		return photoErr
	})
	m.getLogEntry(ev).WithFields(log.Fields{
		"ref":               draft.id,
		"photos":            len(draft.photos),
		"failed_moderators": len(failed),
	}).Info("listing sent to moderation")

	m.reply(ctx, ev, i18n.Get("Thank you! Your listing has been accepted and will be published after moderation.", m.cfg.Language), notify.KeyboardMenu)
}

func authorOf(ev event.Event) listing.Author {
	return listing.Author{
		ID:        ev.UserID,
		FirstName: ev.Profile.FirstName,
		LastName:  ev.Profile.LastName,
		Username:  ev.Profile.Username,
	}
}
