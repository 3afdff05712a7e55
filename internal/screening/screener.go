package screening

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/adapters"
	"github.com/slavuta-ads/adsbot/internal/adapters/llm"
	"github.com/slavuta-ads/adsbot/internal/i18n"
)

const systemPrompt = `You pre-screen classified listings for a local marketplace channel before a human moderator reviews them.
Answer with exactly one line.
Answer "OK" when the listing looks like a normal private listing.
Answer "SUSPICIOUS: <reason in at most 8 words>" for scams, prohibited goods, phishing links, or spam.`

type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictClean
	VerdictSuspicious
)

// Screener asks a language model for an advisory verdict. It never blocks a
// submission; moderators see the verdict as an extra line.
type Screener struct {
	model   adapters.LLM
	timeout time.Duration
	lang    string
}

func New(model adapters.LLM, timeout time.Duration, lang string) *Screener {
	return &Screener{model: model, timeout: timeout, lang: lang}
}

func (s *Screener) getLogEntry() *log.Entry {
	return log.WithField("object", "Screener")
}

func (s *Screener) Assess(ctx context.Context, text string) (Verdict, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.model.ChatCompletion(ctx, []llm.ChatCompletionMessage{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: text},
	})
	if err != nil {
		return VerdictUnknown, "", err
	}
	verdict, reason := parseVerdict(resp.Content())
	return verdict, reason, nil
}

// Advise returns the line appended to the moderation message, or "" when no verdict is available.
func (s *Screener) Advise(ctx context.Context, text string) string {
	if s == nil || s.model == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	verdict, reason, err := s.Assess(ctx, text)
	if err != nil {
		s.getLogEntry().WithField("error", err.Error()).Warn("screening failed")
		return ""
	}
	switch verdict {
	case VerdictClean:
		return i18n.Get("🤖 Pre-screening: looks fine", s.lang)
	case VerdictSuspicious:
		return fmt.Sprintf(i18n.Get("🤖 Pre-screening: suspicious (%s)", s.lang), reason)
	default:
		return ""
	}
}

func parseVerdict(answer string) (Verdict, string) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(answer), "\n", 2)[0])
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, "SUSPICIOUS"):
		reason := strings.TrimSpace(strings.TrimLeft(line[len("SUSPICIOUS"):], ": -"))
		return VerdictSuspicious, reason
	case strings.HasPrefix(upper, "OK"):
		return VerdictClean, ""
	default:
		return VerdictUnknown, ""
	}
}
