package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"pdf2epub/config"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if env.Stylesheet != nil || env.Overwrite {
		t.Error("Unexpected non-default values")
	}
}

func TestEnvFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	tests := []struct {
		name         string
		log          *zap.Logger
		wantRedirect bool
	}{
		{name: "with logger", log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))), wantRedirect: true},
		{name: "without logger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Log: tt.log}
			env.RedirectStdLog()
			if (env.restoreStdLog != nil) != tt.wantRedirect {
				t.Errorf("restoreStdLog set = %v, want %v", env.restoreStdLog != nil, tt.wantRedirect)
			}
			env.RestoreStdLog()
		})
	}
}

func TestLocalEnv_LoadStylesheet(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
	css := filepath.Join(t.TempDir(), "custom.css")
	if err := os.WriteFile(css, []byte("p { margin: 0; }"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     *config.Config
		want    string
		wantErr bool
	}{
		{name: "no configuration", cfg: nil},
		{name: "built-in", cfg: &config.Config{}},
		{name: "custom", cfg: &config.Config{Packager: config.PackagerConfig{StylesheetPath: css}}, want: "p { margin: 0; }"},
		{name: "missing", cfg: &config.Config{Packager: config.PackagerConfig{StylesheetPath: css + ".absent"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Cfg: tt.cfg, Log: log, Stylesheet: []byte("stale")}
			err := env.LoadStylesheet()
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadStylesheet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(env.Stylesheet) != tt.want {
				t.Errorf("Stylesheet = %q, want %q", env.Stylesheet, tt.want)
			}
		})
	}
}
