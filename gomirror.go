package gomirror

import (
	"github.com/gomirror/gomirror/engine/config"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/prefab"
	"github.com/gomirror/gomirror/engine/session"
)

// SetConfigFile sets the config file path (gomirror.ini by default), must be
// called before NewServer/NewClient
func SetConfigFile(path string) {
	config.SetConfigFile(path)
}

// NewRegistry creates an empty prefab registry
func NewRegistry() *prefab.Registry {
	return prefab.NewRegistry()
}

// NewServer creates the authoritative session from the config file
func NewServer(registry *prefab.Registry) *session.Service {
	cfg := config.Get()
	gmlog.SetupOutput(cfg.Server.LogFile, cfg.Server.LogStderr)
	gmlog.SetLevel(gmlog.ParseLevel(cfg.Session.LogLevel))
	return session.NewService(cfg, registry)
}

// NewClient creates a client session from the config file
func NewClient(registry *prefab.Registry) *session.ClientSession {
	cfg := config.Get()
	gmlog.SetLevel(gmlog.ParseLevel(cfg.Client.LogLevel))
	return session.NewClientSession(cfg, registry)
}
