package config

import (
	"encoding/json"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/gomirror/gomirror/engine/gmlog"
)

const (
	_DEFAULT_CONFIG_FILE  = "gomirror.ini"
	_DEFAULT_LOG_LEVEL    = "debug"
	_DEFAULT_LISTEN_IP    = "0.0.0.0"
	_DEFAULT_LISTEN_PORT  = 14701
	_DEFAULT_KCP_PORT     = 14702
	_DEFAULT_SYNC_MS      = 100
	_DEFAULT_BACKTIME_MS  = 200
	_DEFAULT_RECYCLE_SECS = 30
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	goMirrorConfig *GoMirrorConfig
	configLock     sync.Mutex
)

// SessionConfig defines fields of the replication session config
type SessionConfig struct {
	RecycleIDs        bool
	RecycleDelay      time.Duration
	SyncIntervalMS    int
	InterpBackTimeMS  int
	PositionThreshold float64
	RotationThreshold float64
	ScaleThreshold    float64
	RotationGuard     float64
	LogLevel          string
}

// ServerConfig defines fields of the server transport config
type ServerConfig struct {
	Ip        string
	Port      int
	KCPPort   int
	LogFile   string
	LogStderr bool
	LogLevel  string
}

// ClientConfig defines fields of the client transport config
type ClientConfig struct {
	ServerAddr string
	UseKCP     bool
	LogLevel   string
}

// GoMirrorConfig defines the total config file structure
type GoMirrorConfig struct {
	Session SessionConfig
	Server  ServerConfig
	Client  ClientConfig
}

// SetConfigFile sets the config file path (gomirror.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of gomirror.ini
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config, reading the file on first use
func Get() *GoMirrorConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if goMirrorConfig == nil {
		goMirrorConfig = readGoMirrorConfig()
	}
	return goMirrorConfig
}

// Reload forces the whole config to be reloaded
func Reload() *GoMirrorConfig {
	configLock.Lock()
	goMirrorConfig = nil
	configLock.Unlock()

	return Get()
}

// GetSession returns the session config
func GetSession() *SessionConfig {
	return &Get().Session
}

// GetServer returns the server config
func GetServer() *ServerConfig {
	return &Get().Server
}

// GetClient returns the client config
func GetClient() *ClientConfig {
	return &Get().Client
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readGoMirrorConfig() *GoMirrorConfig {
	config := GoMirrorConfig{}
	gmlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")

	readSessionConfig(iniFile.Section("session"), &config.Session)
	readServerConfig(iniFile.Section("server"), &config.Server)
	readClientConfig(iniFile.Section("client"), &config.Client)

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		if secName == "default" || secName == "session" || secName == "server" || secName == "client" {
			continue
		}
		gmlog.Errorf("unknown section: %s", secName)
	}
	return &config
}

func readSessionConfig(sec *ini.Section, sc *SessionConfig) {
	sc.RecycleIDs = true
	sc.RecycleDelay = time.Second * _DEFAULT_RECYCLE_SECS
	sc.SyncIntervalMS = _DEFAULT_SYNC_MS
	sc.InterpBackTimeMS = _DEFAULT_BACKTIME_MS
	sc.LogLevel = _DEFAULT_LOG_LEVEL

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "recycle_ids" {
			sc.RecycleIDs = key.MustBool(sc.RecycleIDs)
		} else if name == "recycle_delay" {
			sc.RecycleDelay = time.Second * time.Duration(key.MustInt(_DEFAULT_RECYCLE_SECS))
		} else if name == "sync_interval_ms" {
			sc.SyncIntervalMS = key.MustInt(sc.SyncIntervalMS)
		} else if name == "interp_back_time_ms" {
			sc.InterpBackTimeMS = key.MustInt(sc.InterpBackTimeMS)
		} else if name == "position_threshold" {
			sc.PositionThreshold = key.MustFloat64(sc.PositionThreshold)
		} else if name == "rotation_threshold" {
			sc.RotationThreshold = key.MustFloat64(sc.RotationThreshold)
		} else if name == "scale_threshold" {
			sc.ScaleThreshold = key.MustFloat64(sc.ScaleThreshold)
		} else if name == "rotation_guard" {
			sc.RotationGuard = key.MustFloat64(sc.RotationGuard)
		} else if name == "log_level" {
			sc.LogLevel = key.MustString(sc.LogLevel)
		} else {
			gmlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readServerConfig(sec *ini.Section, sc *ServerConfig) {
	sc.Ip = _DEFAULT_LISTEN_IP
	sc.Port = _DEFAULT_LISTEN_PORT
	sc.KCPPort = _DEFAULT_KCP_PORT
	sc.LogFile = "server.log"
	sc.LogStderr = true
	sc.LogLevel = _DEFAULT_LOG_LEVEL

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			sc.Ip = key.MustString(sc.Ip)
		} else if name == "port" {
			sc.Port = key.MustInt(sc.Port)
		} else if name == "kcp_port" {
			sc.KCPPort = key.MustInt(sc.KCPPort)
		} else if name == "log_file" {
			sc.LogFile = key.MustString(sc.LogFile)
		} else if name == "log_stderr" {
			sc.LogStderr = key.MustBool(sc.LogStderr)
		} else if name == "log_level" {
			sc.LogLevel = key.MustString(sc.LogLevel)
		} else {
			gmlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readClientConfig(sec *ini.Section, cc *ClientConfig) {
	cc.ServerAddr = "127.0.0.1:14701"
	cc.LogLevel = _DEFAULT_LOG_LEVEL

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "server_addr" {
			cc.ServerAddr = key.MustString(cc.ServerAddr)
		} else if name == "use_kcp" {
			cc.UseKCP = key.MustBool(cc.UseKCP)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else {
			gmlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gmlog.Panic(errors.Wrap(err, msg))
	}
}
