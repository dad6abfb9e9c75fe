package host

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/germanamz/overture/pkg/boot"
	"github.com/germanamz/overture/pkg/boot/boottest"
	"github.com/germanamz/overture/pkg/controllers/admin"
	"github.com/germanamz/overture/pkg/controllers/env"
	"github.com/germanamz/overture/pkg/controllers/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHostBootsBuiltinsInOrder(t *testing.T) {
	h, err := New(Config{Admin: AdminConfig{Addr: "127.0.0.1:0"}}, Options{Logger: quiet()})
	require.NoError(t, err)
	defer h.Close()

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, boot.TypeFor[*env.Controller]().String(), report.Results[0].Controller)
	assert.Equal(t, boot.TypeFor[*telemetry.Controller]().String(), report.Results[1].Controller)
	assert.Equal(t, boot.TypeFor[*admin.Controller]().String(), report.Results[2].Controller)
	assert.Equal(t, 3, report.Ready())

	select {
	case <-h.Signal().Done():
	default:
		t.Fatal("signal not resolved after run")
	}

	outcome, resolved := h.Signal().Outcome()
	require.True(t, resolved)
	assert.NoError(t, outcome)

	a, err := boot.Get[*admin.Controller](h.Registry())
	require.NoError(t, err)

	resp, err := http.Get("http://" + a.Addr() + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHostDisabledBuiltins(t *testing.T) {
	h, err := New(Config{Disabled: []string{"telemetry", "admin"}}, Options{Logger: quiet()})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, boot.TypeFor[*env.Controller]().String(), report.Results[0].Controller)

	_, err = boot.Get[*admin.Controller](h.Registry())
	assert.ErrorIs(t, err, boot.ErrNotFound)
	_, err = boot.Get[*telemetry.Controller](h.Registry())
	assert.ErrorIs(t, err, boot.ErrNotFound)
}

func TestHostUnknownDisabledName(t *testing.T) {
	_, err := New(Config{Disabled: []string{"ghost"}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown disabled controller "ghost"`)
}

func TestHostApplicationControllersBootAfterBuiltins(t *testing.T) {
	rec := &boottest.Recorder{}

	h, err := New(Config{Disabled: []string{"admin"}}, Options{
		Logger: quiet(),
		Controllers: []Registration{
			Controller("alpha", func() (*alphaCtrl, error) {
				return &alphaCtrl{Controller: boottest.Controller{Name: "alpha", Rec: rec}}, nil
			}),
			Controller("beta", func() (*betaCtrl, error) {
				return &betaCtrl{Controller: boottest.Controller{Name: "beta", Rec: rec}}, nil
			}),
		},
	})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, rec.Marks())

	require.Len(t, report.Results, 4)
	assert.Equal(t, boot.TypeFor[*alphaCtrl]().String(), report.Results[2].Controller)
	assert.Equal(t, boot.TypeFor[*betaCtrl]().String(), report.Results[3].Controller)
}

func TestHostDisabledApplicationController(t *testing.T) {
	rec := &boottest.Recorder{}

	h, err := New(Config{Disabled: []string{"admin", "beta"}}, Options{
		Logger: quiet(),
		Controllers: []Registration{
			Controller("alpha", func() (*alphaCtrl, error) {
				return &alphaCtrl{Controller: boottest.Controller{Name: "alpha", Rec: rec}}, nil
			}),
			Controller("beta", func() (*betaCtrl, error) {
				return &betaCtrl{Controller: boottest.Controller{Name: "beta", Rec: rec}}, nil
			}),
		},
	})
	require.NoError(t, err)

	_, err = h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha"}, rec.Marks())
}

func TestHostControllerNameTaken(t *testing.T) {
	_, err := New(Config{}, Options{
		Controllers: []Registration{
			Controller("env", func() (*alphaCtrl, error) { return &alphaCtrl{}, nil }),
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `controller name "env" already taken`)
}

func TestHostControllerWithoutFactory(t *testing.T) {
	_, err := New(Config{}, Options{Controllers: []Registration{{name: "empty"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `controller "empty" has no factory`)
}

func TestHostFaultSurfacesEverywhere(t *testing.T) {
	bootErr := errors.New("db down")

	h, err := New(Config{Admin: AdminConfig{Addr: "127.0.0.1:0"}}, Options{
		Logger: quiet(),
		Controllers: []Registration{
			Controller("db", func() (*failingCtrl, error) {
				return &failingCtrl{Controller: boottest.Controller{Name: "db", Err: bootErr}}, nil
			}),
		},
	})
	require.NoError(t, err)
	defer h.Close()

	report, err := h.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bootErr)

	failed := report.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, boot.TypeFor[*failingCtrl]().String(), failed.Controller)

	// Admin booted before the failure, so the fault is observable over HTTP.
	a, err := boot.Get[*admin.Controller](h.Registry())
	require.NoError(t, err)

	resp, err := http.Get("http://" + a.Addr() + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp2, err := http.Get("http://" + a.Addr() + "/api/report")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestHostRunOnce(t *testing.T) {
	h, err := New(Config{Disabled: []string{"admin"}}, Options{Logger: quiet()})
	require.NoError(t, err)

	first, err := h.Run(context.Background())
	require.NoError(t, err)

	second, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)
}

func TestHostAdoptsSourceInstances(t *testing.T) {
	live := &alphaCtrl{Controller: boottest.Controller{Name: "live"}}
	live.SetInitialized(true)

	h, err := New(Config{Disabled: []string{"admin", "telemetry"}}, Options{
		Logger:  quiet(),
		Sources: []boot.Source{boot.StaticSource{live}},
	})
	require.NoError(t, err)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, boot.OriginHost, report.Results[1].Origin)
	assert.Equal(t, 0, live.Calls())

	got, err := boot.Get[*alphaCtrl](h.Registry())
	require.NoError(t, err)
	assert.Same(t, live, got)
}

func TestHostWatchLevelWithoutConfigFile(t *testing.T) {
	h, err := New(Config{}, Options{Logger: quiet()})
	require.NoError(t, err)

	_, err = h.WatchLevel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file loaded")
}

func TestHostWatchLevelCustomLoggerNeedsLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	h, err := New(cfg, Options{Logger: quiet()})
	require.NoError(t, err)

	_, err = h.WatchLevel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Options.Level")
}

func TestHostWatchLevelDrivesCustomLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	level := new(slog.LevelVar)
	h, err := New(cfg, Options{Logger: quiet(), Level: level})
	require.NoError(t, err)

	w, err := h.WatchLevel()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	deadline := time.Now().Add(2 * time.Second)
	for level.Level() != slog.LevelDebug {
		if time.Now().After(deadline) {
			t.Fatalf("level never updated, still %v", level.Level())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type alphaCtrl struct{ boottest.Controller }

type betaCtrl struct{ boottest.Controller }

type failingCtrl struct{ boottest.Controller }
