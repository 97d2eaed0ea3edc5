package config

import (
	"fmt"
	"os"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/gmlog"
)

func init() {
	SetConfigFile("../../gomirror.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	if config.Server.Ip == "" {
		t.Errorf("server ip not found")
	}
	if config.Server.Port == 0 {
		t.Errorf("server port not found")
	}
	gmlog.Infof("read gomirror config: %v", config)
}

func TestReload(t *testing.T) {
	Get()
	config := Reload()
	gmlog.Debugf("gomirror config: \n%v", config)
}

func TestGetSession(t *testing.T) {
	cfg := GetSession()
	assert.T(t, cfg != nil, "session config is nil")
	assert.Equal(t, 100, cfg.SyncIntervalMS)
	assert.Equal(t, true, cfg.RecycleIDs)
	fmt.Fprintf(os.Stderr, "%s\n", DumpPretty(cfg))
}

func TestGetClient(t *testing.T) {
	cfg := GetClient()
	assert.T(t, cfg != nil, "client config is nil")
	assert.T(t, cfg.ServerAddr != "", "client server_addr is empty")
}

func TestSetConfigFile(t *testing.T) {
	SetConfigFile("../../gomirror.ini.sample")
}
