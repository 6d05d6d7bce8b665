package config

// Config represents the complete bot configuration
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Bot      BotConfig       `toml:"bot"`
	HTTP     HTTPConfig      `toml:"http"`
	Channels []ChannelConfig `toml:"channels"`
	Mumble   MumbleConfig    `toml:"mumble"`
	Auth     AuthConfig      `toml:"auth"`
}

// ServerConfig contains IRC server connection settings. Address is
// host[:port]; the port defaults to 6667 when omitted.
type ServerConfig struct {
	Address  string `toml:"address"`
	Nick     string `toml:"nick"`
	Username string `toml:"username"`
	Realname string `toml:"realname"`
}

// BotConfig contains bot behavior settings
type BotConfig struct {
	CommandPrefix string   `toml:"command_prefix"`
	StorageDir    string   `toml:"storage_dir"`
	Admins        []string `toml:"admins"`
	Bans          []string `toml:"bans"`
	GlobalPlugins []string `toml:"global_plugins"`
	Verbose       bool     `toml:"verbose"`
}

// HTTPConfig contains the embedded status server settings. A zero port
// disables the server.
type HTTPConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ChannelConfig contains per-channel plugin and admin settings
type ChannelConfig struct {
	Name        string   `toml:"name"`
	Plugins     []string `toml:"plugins"`
	Admins      []string `toml:"admins"`
	AllowColors *bool    `toml:"allow_colors"`
}

// ColorsAllowed reports whether styled output is permitted in the channel.
// Unset means allowed.
func (c ChannelConfig) ColorsAllowed() bool {
	return c.AllowColors == nil || *c.AllowColors
}

// MumbleConfig holds the voice server details advertised by !mumble
type MumbleConfig struct {
	Address  string `toml:"address"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
}

// AuthConfig holds the bcrypt hash checked by the !verify command. Empty
// disables verification.
type AuthConfig struct {
	PasswordHash string `toml:"password_hash"`
}
