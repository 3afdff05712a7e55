package bot

import (
	"context"
	"strconv"
	"strings"

	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/policy/permissions"
)

type command struct {
	role  permissions.Role
	usage string
	run   func(ctx context.Context, c call) error
}

// call is one command invocation with argument helpers that fail with the
// command's usage hint.
type call struct {
	event.Event
	usage string
}

func (c call) invalid() error {
	return apperrors.Usage(c.usage)
}

func (c call) expectArgs(n int) error {
	if len(c.Args) != n {
		return c.invalid()
	}
	return nil
}

func (c call) userArg(i int) (int64, error) {
	if i >= len(c.Args) {
		return 0, c.invalid()
	}
	id, err := strconv.ParseInt(c.Args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, c.invalid()
	}
	return id, nil
}

func (c call) positiveIntArg(i int) (int, error) {
	if i >= len(c.Args) {
		return 0, c.invalid()
	}
	n, err := strconv.Atoi(c.Args[i])
	if err != nil || n <= 0 {
		return 0, c.invalid()
	}
	return n, nil
}

func (c call) amountArg(i int) (float64, error) {
	if i >= len(c.Args) {
		return 0, c.invalid()
	}
	amount, err := strconv.ParseFloat(strings.Replace(c.Args[i], ",", ".", 1), 64)
	if err != nil || amount <= 0 {
		return 0, c.invalid()
	}
	return amount, nil
}

// restArg joins the arguments from i onwards; it must not be blank.
func (c call) restArg(i int) (string, error) {
	if i >= len(c.Args) {
		return "", c.invalid()
	}
	rest := strings.TrimSpace(strings.Join(c.Args[i:], " "))
	if rest == "" {
		return "", c.invalid()
	}
	return rest, nil
}

func (d *Dispatcher) commandTable() map[string]command {
	admin := func(usage string, run func(context.Context, call) error) command {
		return command{role: permissions.RoleAdmin, usage: usage, run: run}
	}
	moderator := func(usage string, run func(context.Context, call) error) command {
		return command{role: permissions.RoleModerator, usage: usage, run: run}
	}

	table := map[string]command{
		"ban":            admin("/ban <user_id> <days> <reason>", d.ban),
		"unban":          admin("/unban <user_id>", d.unban),
		"blacklist":      admin("/blacklist", d.blacklist),
		"ans":            admin("/ans <user_id> <text>", d.answer),
		"reset_counters": admin("/reset_counters <user_id>", d.resetCounters),
		"view_counters":  admin("/view_counters <user_id>", d.viewCounters),
		"list_users":     admin("/list_users", d.listUsers),
		"check_stats":    admin("/check_stats", d.checkStats),
		"history":        admin("/history <user_id>", d.history),
		"adm_help":       admin("/adm_help", d.adminHelp),

		"mod_help": moderator("/mod_help", d.moderatorHelp),
		"payment":  moderator("/payment <user_id> <service_id> <amount>", d.payment),
	}
	for _, kind := range reviewKinds {
		table[kind.prefix+"_accept"] = moderator("/"+kind.prefix+"_accept <user_id>", d.accept(kind))
		table[kind.prefix+"_reject"] = moderator("/"+kind.prefix+"_reject <user_id> <reason>", d.reject(kind))
	}
	return table
}
