package plugins

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

// seenPlugin records when users were last active and answers !seen
type seenPlugin struct {
	ctx *plugin.Context
	now func() time.Time
}

// NewSeen builds the seen plugin
func NewSeen(ctx *plugin.Context) plugin.Plugin {
	return &seenPlugin{ctx: ctx, now: time.Now}
}

func (p *seenPlugin) Register(r plugin.Registrar) {
	r.RegisterReplyHandler(p.recordActivity)
	r.RegisterCommand(plugin.Command{Name: "seen", Func: p.seenCmd})
}

// recordActivity stores a sighting for every channel message. It never
// produces a reply.
func (p *seenPlugin) recordActivity(msg *irc.Message) []string {
	if p.ctx.Store == nil {
		return nil
	}
	err := p.ctx.Store.TouchSeen(msg.Target, msg.User.Nick, msg.User.Host, msg.Body, p.now())
	if err != nil {
		p.ctx.Log.Warning("Recording sighting of %s: %v", msg.User.Nick, err)
	}
	return nil
}

func (p *seenPlugin) seenCmd(cmd *plugin.CommandMessage) string {
	if p.ctx.Store == nil || len(cmd.Args) != 1 {
		return ""
	}
	nick := cmd.Args[0]
	if strings.EqualFold(nick, p.ctx.Nick) {
		return "I'm right here"
	}
	if strings.EqualFold(nick, cmd.Message.User.Nick) {
		return "Having trouble finding yourself?"
	}

	rec, err := p.ctx.Store.LastSeen(cmd.Message.Target, nick)
	if err == sql.ErrNoRows {
		return fmt.Sprintf("I haven't seen %s in here", nick)
	}
	if err != nil {
		p.ctx.Log.Warning("Looking up %s: %v", nick, err)
		return ""
	}

	out := fmt.Sprintf("%s was last seen %s ago", rec.Nick, formatDuration(p.now().Sub(rec.LastSeen)))
	if rec.LastWords != "" {
		out += fmt.Sprintf(", saying: %s", rec.LastWords)
	}
	return out
}

// formatDuration renders a duration in its two most significant units
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "moments"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
