// Package bot wires the protocol client to the plugin handlers: command
// resolution, spam throttling, reply throttling, and the periodic tick.
package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andrewdodd13/botologist/internal/config"
	boterrors "github.com/andrewdodd13/botologist/internal/errors"
	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/output"
	"github.com/andrewdodd13/botologist/internal/plugin"
	"github.com/andrewdodd13/botologist/internal/storage"
)

const (
	// commandThrottle is the minimum gap between command invocations from
	// one host. Repeating the exact same invocation stretches the gap by
	// repeatPenalty.
	commandThrottle = 2 * time.Second
	repeatPenalty   = 3

	// replyThrottle is the minimum gap between identical reply texts in
	// one channel.
	replyThrottle = 2 * time.Second

	// tickInterval drives the periodic handlers and clears the throttle
	// logs.
	tickInterval = 120 * time.Second
)

// lastInvocation remembers the most recent command run, for the repeat
// penalty check.
type lastInvocation struct {
	host    string
	command string
	args    string
}

// Bot is the dispatch engine: it owns the protocol client, the per-channel
// handler sets, and the throttle state.
type Bot struct {
	cfg        *config.Config
	client     *irc.Client
	out        *output.Output
	errHandler *boterrors.Handler
	store      *storage.Store
	version    string
	started    time.Time

	mu          sync.Mutex
	channels    map[string]*Channel
	commandLog  map[string]time.Time            // command name -> last invocation, any host
	lastCommand *lastInvocation                 // most recent invocation, throttled or not
	replyLog    map[string]map[string]time.Time // channel -> reply text -> last sent
	tickTimer   *time.Timer

	// indirections for tests
	now     func() time.Time
	sendMsg func(target, message string)
}

// New builds a bot from configuration, instantiating the configured
// plugins per channel.
func New(cfg *config.Config, out *output.Output, store *storage.Store, factories map[string]plugin.Factory, version string) (*Bot, error) {
	server, err := irc.ParseServer(cfg.Server.Address)
	if err != nil {
		return nil, fmt.Errorf("parsing server address: %w", err)
	}

	b := &Bot{
		cfg:        cfg,
		out:        out,
		errHandler: boterrors.NewHandler(out),
		store:      store,
		version:    version,
		channels:   make(map[string]*Channel),
		commandLog: make(map[string]time.Time),
		replyLog:   make(map[string]map[string]time.Time),
		now:        time.Now,
	}

	client := irc.NewClient(server, cfg.Server.Nick, cfg.Server.Username, cfg.Server.Realname, out.Logger)
	client.Conn.ErrorHandler = b.errHandler.Handle
	client.Conn.OnJoin = append(client.Conn.OnJoin, b.handleJoin)
	client.Conn.OnPrivmsg = append(client.Conn.OnPrivmsg, b.handlePrivmsg)
	b.client = client
	b.sendMsg = client.Conn.SendMsg

	ctx := &plugin.Context{
		Nick:    cfg.Server.Nick,
		Version: version,
		Config:  cfg,
		Store:   store,
		Log:     out.Logger,
	}

	for _, chCfg := range cfg.Channels {
		ircChannel := irc.NewChannel(chCfg.Name)
		ircChannel.SetAllowColors(chCfg.ColorsAllowed())
		client.AddChannel(ircChannel)

		adminHosts := append(append([]string{}, cfg.Bot.Admins...), chCfg.Admins...)
		ch := NewChannel(ircChannel, adminHosts)

		names := append(append([]string{}, cfg.Bot.GlobalPlugins...), chCfg.Plugins...)
		for _, name := range names {
			factory, ok := factories[name]
			if !ok {
				out.Logger.Warning("Unknown plugin %q configured for %s", name, ircChannel.Name())
				continue
			}
			factory(ctx).Register(ch)
		}

		b.channels[ircChannel.Name()] = ch
	}

	return b, nil
}

// Run connects to the server and starts the periodic tick. It returns
// immediately; the bot runs on its own goroutines.
func (b *Bot) Run() {
	b.started = b.now()
	b.scheduleTick()
	b.client.Run()
}

// Stop quits the server with a farewell and stops the tick
func (b *Bot) Stop(reason string) {
	b.mu.Lock()
	if b.tickTimer != nil {
		b.tickTimer.Stop()
		b.tickTimer = nil
	}
	b.mu.Unlock()
	b.client.Stop(reason)
}

// Nick returns the bot's configured nick
func (b *Bot) Nick() string {
	return b.cfg.Server.Nick
}

// Version returns the build version string
func (b *Bot) Version() string {
	return b.version
}

// Uptime returns how long the bot has been running
func (b *Bot) Uptime() time.Duration {
	if b.started.IsZero() {
		return 0
	}
	return b.now().Sub(b.started)
}

// ChannelOverview is a point-in-time view of one channel's membership
type ChannelOverview struct {
	Name      string
	UserCount int
	Nicks     []string
}

// ChannelOverviews returns a name-sorted membership snapshot, used by the
// status server.
func (b *Bot) ChannelOverviews() []ChannelOverview {
	overviews := make([]ChannelOverview, 0, len(b.channels))
	for _, ch := range b.channels {
		nicks := ch.irc.Nicks()
		sort.Strings(nicks)
		overviews = append(overviews, ChannelOverview{
			Name:      ch.Name(),
			UserCount: ch.irc.UserCount(),
			Nicks:     nicks,
		})
	}
	sort.Slice(overviews, func(i, j int) bool { return overviews[i].Name < overviews[j].Name })
	return overviews
}

// handleJoin runs the join handlers for the channel. The first handler to
// produce output wins.
func (b *Bot) handleJoin(ircChannel *irc.Channel, user *irc.User) {
	ch, ok := b.channels[ircChannel.Name()]
	if !ok {
		return
	}
	for _, fn := range ch.joinHandlers() {
		if out := fn(user, ch); out != "" {
			b.send(ch.Name(), out)
			return
		}
	}
}

// handlePrivmsg routes one chat message: commands when the body starts
// with the command prefix, reply handlers otherwise.
func (b *Bot) handlePrivmsg(msg *irc.Message) {
	if b.isBanned(msg.User.Host) {
		b.out.Logger.Debug("Ignoring message from banned host %s", msg.User.Host)
		return
	}

	b.out.Logger.ChannelMessage(msg.Target, msg.User.Nick, msg.Body)

	if msg.IsPrivate() {
		return
	}
	ch, ok := b.channels[msg.Target]
	if !ok {
		return
	}

	msg.User.IsAdmin = ch.IsAdmin(msg.User.Host)

	prefix := b.cfg.Bot.CommandPrefix
	if strings.HasPrefix(msg.Body, prefix) && len(msg.Body) > len(prefix) {
		b.handleCommand(ch, msg)
		return
	}
	b.callRepliers(ch, msg)
}

// handleCommand resolves the typed name and invokes the command, on its
// own goroutine when the command is marked threaded.
func (b *Bot) handleCommand(ch *Channel, msg *irc.Message) {
	if len(msg.Words) == 0 {
		return
	}
	typed := strings.ToLower(msg.Words[0][len(b.cfg.Bot.CommandPrefix):])
	if typed == "" {
		return
	}

	cmd, matches := ch.Command(typed)
	if matches != 1 {
		b.out.Logger.Debug("%v", boterrors.NewDispatchError(typed, matches))
		return
	}

	cmdMsg := &plugin.CommandMessage{
		Message: msg,
		Channel: ch,
		Command: cmd.Name,
		Args:    msg.Words[1:],
	}

	if cmd.Threaded {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.errHandler.Handle(boterrors.NewHandlerError(
						fmt.Sprintf("threaded command %s", cmd.Name), fmt.Errorf("%v", r)))
				}
			}()
			b.callCommand(cmd, cmdMsg)
		}()
		return
	}
	b.callCommand(cmd, cmdMsg)
}

// callCommand applies the spam throttle and runs the handler. The
// throttle cursor advances on every attempt, throttled or not, so rapid
// retries keep pushing the window out.
func (b *Bot) callCommand(cmd plugin.Command, cmdMsg *plugin.CommandMessage) {
	host := cmdMsg.Message.User.Host
	argsKey := strings.Join(cmdMsg.Args, " ")

	now := b.now()
	b.mu.Lock()
	threshold := commandThrottle
	if b.lastCommand != nil &&
		b.lastCommand.host == host &&
		b.lastCommand.command == cmd.Name &&
		b.lastCommand.args == argsKey {
		threshold *= repeatPenalty
	}
	last, seen := b.commandLog[cmd.Name]
	throttled := !cmdMsg.Message.User.IsAdmin && seen && now.Sub(last) < threshold
	b.commandLog[cmd.Name] = now
	b.lastCommand = &lastInvocation{host: host, command: cmd.Name, args: argsKey}
	b.mu.Unlock()

	if throttled {
		b.out.Logger.Debug("Throttling command %s from %s", cmd.Name, host)
		return
	}

	if out := cmd.Func(cmdMsg); out != "" {
		b.send(cmdMsg.Message.Target, out)
	}
}

// callRepliers runs every reply handler on the message. Handlers may
// return several replies; each text is throttled on its own, and the
// timestamp refreshes even on a drop, so a spammed trigger stays quiet
// until it cools off.
func (b *Bot) callRepliers(ch *Channel, msg *irc.Message) {
	for _, fn := range ch.replyHandlers() {
		for _, out := range fn(msg) {
			if out == "" {
				continue
			}

			now := b.now()
			b.mu.Lock()
			chLog := b.replyLog[ch.Name()]
			if chLog == nil {
				chLog = make(map[string]time.Time)
				b.replyLog[ch.Name()] = chLog
			}
			last, seen := chLog[out]
			throttled := seen && now.Sub(last) < replyThrottle
			chLog[out] = now
			b.mu.Unlock()

			if throttled {
				b.out.Logger.Debug("Throttling reply in %s", ch.Name())
				continue
			}
			b.send(ch.Name(), out)
		}
	}
}

// tick runs the periodic handlers and clears the throttle logs. The next
// tick is always rearmed, even when a handler fails.
func (b *Bot) tick() {
	defer b.scheduleTick()

	b.mu.Lock()
	b.commandLog = make(map[string]time.Time)
	b.replyLog = make(map[string]map[string]time.Time)
	b.lastCommand = nil
	b.mu.Unlock()

	for _, ch := range b.channels {
		for _, fn := range ch.tickHandlers() {
			b.runTicker(ch.Name(), fn)
		}
	}
}

// runTicker runs one tick handler, sending its output to the channel it
// is registered in and containing any panic so the remaining handlers
// still run.
func (b *Bot) runTicker(channel string, fn plugin.TickFunc) {
	defer func() {
		if r := recover(); r != nil {
			b.errHandler.Handle(boterrors.NewHandlerError(
				fmt.Sprintf("tick handler for %s", channel), fmt.Errorf("%v", r)))
		}
	}()
	for _, text := range fn() {
		b.send(channel, text)
	}
}

func (b *Bot) scheduleTick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickTimer = time.AfterFunc(tickInterval, b.tick)
}

// send delivers a message to a target. The "*" target fans out to every
// configured channel in name order.
func (b *Bot) send(target, message string) {
	if message == "" {
		return
	}
	if target == "*" {
		names := make([]string, 0, len(b.channels))
		for name := range b.channels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.sendMsg(name, message)
		}
		return
	}
	b.sendMsg(target, message)
}

func (b *Bot) isBanned(host string) bool {
	for _, banned := range b.cfg.Bot.Bans {
		if banned == host {
			return true
		}
	}
	return false
}
