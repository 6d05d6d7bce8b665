package plugins

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/andrewdodd13/botologist/internal/plugin"
)

// authPlugin lets users prove themselves admins with a shared password.
// The password hash lives in the configuration; a successful !verify adds
// the user's host to the channel's admin list.
type authPlugin struct {
	ctx *plugin.Context
}

// NewAuth builds the auth plugin
func NewAuth(ctx *plugin.Context) plugin.Plugin {
	return &authPlugin{ctx: ctx}
}

func (p *authPlugin) Register(r plugin.Registrar) {
	// bcrypt comparison is deliberately slow, keep it off the receive loop
	r.RegisterCommand(plugin.Command{Name: "verify", Threaded: true, Func: p.verifyCmd})
}

func (p *authPlugin) verifyCmd(cmd *plugin.CommandMessage) string {
	hash := p.ctx.Config.Auth.PasswordHash
	if hash == "" || len(cmd.Args) != 1 {
		return ""
	}

	user := cmd.Message.User
	if cmd.Channel.IsAdmin(user.Host) {
		return user.Nick + ": you already have admin rights"
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(cmd.Args[0])); err != nil {
		p.ctx.Log.Warning("Failed verification attempt from %s", user.Host)
		return ""
	}

	cmd.Channel.AddAdmin(user.Host)
	p.ctx.Log.Info("Granted admin rights to %s in %s", user.Host, cmd.Channel.Name())
	return user.Nick + ": you now have admin rights in this channel"
}
