// Package plugins holds the bundled plugins and the registry mapping
// config names to their factories.
package plugins

import (
	"github.com/andrewdodd13/botologist/internal/plugin"
)

// All returns the registry of bundled plugins, keyed by the names used in
// the channel configuration.
func All() map[string]plugin.Factory {
	return map[string]plugin.Factory{
		"default": NewDefault,
		"urls":    NewURLs,
		"seen":    NewSeen,
		"auth":    NewAuth,
	}
}
