package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/cmd/tether/commands"
	"go.trai.ch/tether/internal/adapters/metrics"
	"go.trai.ch/tether/internal/app"
	"go.trai.ch/tether/internal/build"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

type mockApp struct {
	evalFunc  func(ctx context.Context, scenePath, bindingsPath string) (app.Report, error)
	watchFunc func(ctx context.Context, scenePath, bindingsPath string, out io.Writer) error
}

func (m *mockApp) Eval(ctx context.Context, scenePath, bindingsPath string) (app.Report, error) {
	if m.evalFunc != nil {
		return m.evalFunc(ctx, scenePath, bindingsPath)
	}
	return app.Report{}, nil
}

func (m *mockApp) Watch(ctx context.Context, scenePath, bindingsPath string, out io.Writer) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, scenePath, bindingsPath, out)
	}
	return nil
}

type jsonRecorder struct {
	ports.Logger
	json bool
}

func (l *jsonRecorder) SetJSON(enable bool) { l.json = enable }

var report = app.Report{
	Scene: "window",
	Bindings: []app.Entry{
		{ID: "title.Text", Node: "title", Target: "Text", Mode: "OneWay", Value: "Ada Lovelace"},
		{ID: "ghost.Text", Node: "ghost", Target: "Text", Mode: "OneWay", Error: "node not found"},
	},
}

func TestCommands_Eval(t *testing.T) {
	t.Run("wires paths", func(t *testing.T) {
		var scene, bindings string
		mock := &mockApp{
			evalFunc: func(_ context.Context, s, b string) (app.Report, error) {
				scene, bindings = s, b
				return report, nil
			},
		}

		cli := commands.New(mock)
		out := new(bytes.Buffer)
		cli.SetOutput(out, out)
		cli.SetArgs([]string{"eval", "--scene", "s.yaml", "-b", "b.yaml"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "s.yaml", scene)
		assert.Equal(t, "b.yaml", bindings)
		assert.Contains(t, out.String(), "scene window\n")
		assert.Contains(t, out.String(), `title.Text  "Ada Lovelace"  OneWay`)
		assert.Contains(t, out.String(), "ghost.Text  error: node not found")
	})

	t.Run("defaults", func(t *testing.T) {
		var scene, bindings string
		mock := &mockApp{
			evalFunc: func(_ context.Context, s, b string) (app.Report, error) {
				scene, bindings = s, b
				return app.Report{}, nil
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"eval"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "scene.yaml", scene)
		assert.Equal(t, "bindings.yaml", bindings)
	})

	t.Run("json", func(t *testing.T) {
		mock := &mockApp{
			evalFunc: func(context.Context, string, string) (app.Report, error) {
				return report, nil
			},
		}
		logger := &jsonRecorder{}

		cli := commands.New(mock, commands.WithLogger(logger))
		out := new(bytes.Buffer)
		cli.SetOutput(out, new(bytes.Buffer))
		cli.SetArgs([]string{"eval", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, logger.json)

		var got app.Report
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, report, got)
	})

	t.Run("metrics", func(t *testing.T) {
		registry := metrics.NewRegistry()
		registry.Update(domain.ToTarget, ports.OutcomeApplied)

		cli := commands.New(&mockApp{}, commands.WithMetrics(registry.GetPrometheusRegistry()))
		errOut := new(bytes.Buffer)
		cli.SetOutput(new(bytes.Buffer), errOut)
		cli.SetArgs([]string{"eval", "--metrics"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, errOut.String(), `tether_updates_total{direction="to_target",outcome="applied"} 1`)
	})

	t.Run("returns error on eval failure", func(t *testing.T) {
		mock := &mockApp{
			evalFunc: func(context.Context, string, string) (app.Report, error) {
				return app.Report{}, errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"eval"})

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"eval", "extra"})
		assert.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Watch(t *testing.T) {
	called := false
	mock := &mockApp{
		watchFunc: func(_ context.Context, s, b string, out io.Writer) error {
			called = true
			assert.Equal(t, "s.yaml", s)
			assert.Equal(t, "bindings.yaml", b)
			_, err := io.WriteString(out, "title.Text = Ada\n")
			return err
		},
	}

	cli := commands.New(mock)
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	cli.SetArgs([]string{"watch", "-s", "s.yaml"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, called)
	assert.Equal(t, "title.Text = Ada\n", out.String())
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "tether version "+build.Version+"\n", out.String())
}
