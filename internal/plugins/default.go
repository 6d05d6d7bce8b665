package plugins

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/ircformat"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

const (
	tableflip   = "(╯°□°)╯︵ ┻━┻"
	tableUnflip = "┬─┬ ノ( ゜-゜ノ)"
	repoURL     = "https://github.com/andrewdodd13/botologist"
)

var (
	rollPattern   = regexp.MustCompile(`^(\d+)(?:d(\d+))?$`)
	noWorkPattern = regexp.MustCompile(`(?i).*(__)?bot(__)?\s+(no|not|does ?n.?t)\s+work.*`)
)

// defaultPlugin bundles the stock commands and repliers every channel
// usually wants.
type defaultPlugin struct {
	ctx     *plugin.Context
	roll    func(sides int) int
	insults []insult
}

type insult struct {
	pattern *regexp.Regexp
	reply   string
}

// NewDefault builds the default plugin
func NewDefault(ctx *plugin.Context) plugin.Plugin {
	nick := regexp.QuoteMeta(ctx.Nick)
	return &defaultPlugin{
		ctx:  ctx,
		roll: func(sides int) int { return rand.Intn(sides) + 1 },
		insults: []insult{
			{regexp.MustCompile(`(?i).*fuck(\s+you)\s*,?\s*` + nick + `.*`), "fuck you too %s"},
			{regexp.MustCompile(`(?i).*` + nick + `[,:]?\s+fuck\s+you.*`), "fuck you too %s"},
		},
	}
}

func (p *defaultPlugin) Register(r plugin.Registrar) {
	r.RegisterCommand(plugin.Command{Name: "mumble", Func: p.mumbleCmd})
	r.RegisterCommand(plugin.Command{Name: "coinflip", Alias: "flip", Func: p.coinflipCmd})
	r.RegisterCommand(plugin.Command{Name: "roll", Func: p.rollCmd})
	r.RegisterCommand(plugin.Command{Name: "repo", Func: p.repoCmd})
	r.RegisterCommand(plugin.Command{Name: "version", Func: p.versionCmd})
	r.RegisterReplyHandler(p.tableflipReply)
	r.RegisterReplyHandler(p.insultReply)
	r.RegisterReplyHandler(p.noWorkReply)
}

func (p *defaultPlugin) mumbleCmd(*plugin.CommandMessage) string {
	mumble := p.ctx.Config.Mumble
	if mumble.Address == "" {
		return ""
	}
	out := fmt.Sprintf("Mumble (http://mumble.info) - address: %s - port: %d", mumble.Address, mumble.Port)
	if mumble.Password != "" {
		out += " - password: " + mumble.Password
	}
	return out
}

func (p *defaultPlugin) coinflipCmd(*plugin.CommandMessage) string {
	if p.roll(2) == 2 {
		return "Heads!"
	}
	return "Tails!"
}

// rollCmd rolls N-sided dice: "!roll 6" for one die, "!roll 2d10" for
// several.
func (p *defaultPlugin) rollCmd(cmd *plugin.CommandMessage) string {
	usage := fmt.Sprintf("Usage: %s!roll 6%s or %s!roll 2d10", ircformat.Bold, ircformat.Reset, ircformat.Bold)

	if len(cmd.Args) == 0 {
		return usage
	}
	m := rollPattern.FindStringSubmatch(cmd.Args[0])
	if m == nil {
		return usage
	}

	numDie := 1
	sides, _ := strconv.Atoi(m[1])
	if m[2] != "" {
		numDie, _ = strconv.Atoi(m[1])
		sides, _ = strconv.Atoi(m[2])
	}

	if numDie < 1 {
		return "Cannot roll less than 1 die!"
	}
	if sides < 2 {
		return "Cannot roll die with less than 2 sides!"
	}
	if numDie > 10 || sides > 20 {
		return "Maximum 10d20!"
	}

	total := 0
	for i := 0; i < numDie; i++ {
		total += p.roll(sides)
	}
	return fmt.Sprintf("Rolling %d die with %d sides: %d", numDie, sides, total)
}

func (p *defaultPlugin) repoCmd(*plugin.CommandMessage) string {
	return repoURL
}

func (p *defaultPlugin) versionCmd(*plugin.CommandMessage) string {
	return "botologist " + p.ctx.Version
}

func (p *defaultPlugin) tableflipReply(msg *irc.Message) []string {
	if strings.Contains(msg.Body, tableflip) {
		return []string{tableUnflip}
	}
	return nil
}

// insultReply answers in kind when the bot is sworn at
func (p *defaultPlugin) insultReply(msg *irc.Message) []string {
	for _, ins := range p.insults {
		if ins.pattern.MatchString(msg.Body) {
			return []string{fmt.Sprintf(ins.reply, msg.User.Nick)}
		}
	}
	return nil
}

// noWorkReply answers complaints that the bot doesn't work
func (p *defaultPlugin) noWorkReply(msg *irc.Message) []string {
	if noWorkPattern.MatchString(msg.Body) {
		return []string{"I always work"}
	}
	return nil
}
