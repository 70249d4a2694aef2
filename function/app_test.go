package function_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/fnboot/function"
	"github.com/junioryono/fnboot/internal/testutil"
)

func newApp(t *testing.T, opts ...function.AppOption) (*function.App, *testutil.LogRecorder) {
	t.Helper()

	logger, rec := testutil.NewLogger()
	app := function.NewApp(append([]function.AppOption{function.WithLogger(logger)}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
	return app, rec
}

func noop(*function.Invocation) (any, error) {
	return nil, nil
}

func serve(app http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestApp_Routes(t *testing.T) {
	t.Parallel()

	app, rec := newApp(t)
	bp := function.NewBlueprint()

	require.NoError(t, bp.Route(function.RouteConfig{Route: "/users/{id}"})(
		func(ctx context.Context, inv *function.Invocation) (any, error) {
			return map[string]string{"id": inv.Param("id"), "function": inv.FunctionName}, nil
		}))
	require.NoError(t, bp.Route(function.RouteConfig{Name: "create", Route: "/users", Methods: []string{"POST"}})(
		func(inv *function.Invocation) (any, error) {
			body, err := io.ReadAll(inv.Request.Body)
			if err != nil {
				return nil, err
			}
			return function.Text(http.StatusCreated, "created "+string(body)), nil
		}))
	require.NoError(t, bp.Route(function.RouteConfig{Route: "/fail"})(
		func(inv *function.Invocation) (any, error) {
			return nil, testutil.ErrTest
		}))
	require.NoError(t, bp.Route(function.RouteConfig{Route: "/panic"})(
		func(inv *function.Invocation) (any, error) {
			panic("handler exploded")
		}))
	require.NoError(t, bp.Route(function.RouteConfig{Route: "/empty"})(
		func(inv *function.Invocation) (any, error) {
			return nil, nil
		}))

	require.NoError(t, app.RegisterBlueprint(bp))

	t.Run("route parameters and JSON", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/users/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"42","function":"GET /users/{id}"}`, w.Body.String())
	})

	t.Run("request body", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("ada")))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "created ada", w.Body.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := serve(app, http.MethodDelete, "/users")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("handler error", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/fail")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
		assert.NotEmpty(t, rec.Find(slog.LevelError, "function failed"))
	})

	t.Run("handler panic", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/panic")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/empty")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("functions are listed in order", func(t *testing.T) {
		fns := app.Functions()
		require.Len(t, fns, 5)
		assert.Equal(t, "GET /users/{id}", fns[0].Name)
		assert.Equal(t, "create", fns[1].Name)

		fn, ok := app.Function("create")
		require.True(t, ok)
		assert.Equal(t, function.KindRoute, fn.Kind)
	})
}

func TestApp_Registration(t *testing.T) {
	t.Parallel()

	t.Run("duplicate names", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		bp := function.NewBlueprint()
		require.NoError(t, bp.Route(function.RouteConfig{Name: "a", Route: "/a"})(noop))
		require.NoError(t, app.RegisterBlueprint(bp))

		err := app.RegisterBlueprint(bp)
		assert.ErrorIs(t, err, function.ErrDuplicateFunction)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		bp := function.NewBlueprint()
		require.NoError(t, bp.Timer(function.TimerConfig{Schedule: "not a schedule"})(noop))

		assert.ErrorIs(t, app.RegisterBlueprint(bp), function.ErrInvalidConfig)
	})

	t.Run("second consumer of a queue", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		bp := function.NewBlueprint()
		require.NoError(t, bp.Queue(function.QueueConfig{Name: "one", Queue: "jobs"})(noop))
		require.NoError(t, bp.Queue(function.QueueConfig{Name: "two", Queue: "jobs"})(noop))

		assert.ErrorIs(t, app.RegisterBlueprint(bp), function.ErrInvalidConfig)
	})

	t.Run("function with an invalid handler", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		err := app.RegisterFunction(&function.Function{Name: "bad", Kind: "custom", Handler: 42})
		assert.ErrorIs(t, err, function.ErrInvalidHandler)
	})

	t.Run("after stop", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		require.NoError(t, app.Stop(context.Background()))

		err := app.RegisterFunction(&function.Function{Name: "late", Kind: "custom", Handler: noop})
		assert.ErrorIs(t, err, function.ErrAppStopped)
		assert.ErrorIs(t, app.Start(context.Background()), function.ErrAppStopped)
	})
}

func TestApp_Handle(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)
	require.NoError(t, app.Handle("/version", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1.0.0"))
	})))
	assert.ErrorIs(t, app.Handle("/nil", nil), function.ErrInvalidConfig)

	w := serve(app, http.MethodPost, "/version")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0.0", w.Body.String())
	assert.Empty(t, app.Functions())
}

func TestApp_Middleware(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t, function.WithMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Served-By", "fnboot")
			next.ServeHTTP(w, r)
		})
	}))

	bp := function.NewBlueprint()
	require.NoError(t, bp.Route(function.RouteConfig{Route: "/ping"})(func(*function.Invocation) (any, error) {
		return "pong", nil
	}))
	require.NoError(t, app.RegisterBlueprint(bp))

	w := serve(app, http.MethodGet, "/ping")
	assert.Equal(t, "fnboot", w.Header().Get("X-Served-By"))
	assert.Equal(t, "pong", w.Body.String())
}

func TestApp_Invoke(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)
	bp := function.NewBlueprint()
	require.NoError(t, bp.Trigger("custom", nil)(func(ctx context.Context, inv *function.Invocation) (any, error) {
		return inv.Kind, nil
	}))
	require.NoError(t, app.RegisterBlueprint(bp))

	result, err := app.Invoke(context.Background(), "custom", nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", result)

	_, err = app.Invoke(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, function.ErrFunctionNotFound)
}

func TestApp_LambdaHandler(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)
	bp := function.NewBlueprint()
	require.NoError(t, bp.Route(function.RouteConfig{Route: "/hello/{name}"})(func(inv *function.Invocation) (any, error) {
		return "hello " + inv.Param("name"), nil
	}))
	require.NoError(t, app.RegisterBlueprint(bp))

	resp, err := app.LambdaHandler()(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/hello/lambda",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/hello/lambda",
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_Timers(t *testing.T) {
	t.Parallel()

	t.Run("run on startup", func(t *testing.T) {
		t.Parallel()

		app, _ := newApp(t)
		fired := make(chan *function.TimerInfo, 1)

		bp := function.NewBlueprint()
		require.NoError(t, bp.Timer(function.TimerConfig{Name: "nightly", Schedule: "0 0 3 * * *", RunOnStartup: true})(
			func(ctx context.Context, inv *function.Invocation) (any, error) {
				fired <- inv.Timer
				return nil, nil
			}))
		require.NoError(t, app.RegisterBlueprint(bp))
		require.NoError(t, app.Start(context.Background()))

		select {
		case info := <-fired:
			assert.True(t, info.OnStartup)
			assert.Equal(t, "0 0 3 * * *", info.Schedule)
		case <-time.After(5 * time.Second):
			t.Fatal("startup timer did not fire")
		}
	})

	t.Run("failures are retried and logged", func(t *testing.T) {
		t.Parallel()

		app, rec := newApp(t)
		var calls atomic.Int32

		bp := function.NewBlueprint()
		bp.Retry(function.RetryPolicy{Strategy: function.FixedDelay, MaxRetryCount: 2, Delay: time.Millisecond})
		require.NoError(t, bp.Timer(function.TimerConfig{Name: "flaky", Schedule: "@every 1h", RunOnStartup: true})(
			func(*function.Invocation) (any, error) {
				calls.Add(1)
				return nil, testutil.ErrTest
			}))
		require.NoError(t, app.RegisterBlueprint(bp))
		require.NoError(t, app.Start(context.Background()))

		require.Eventually(t, func() bool {
			return len(rec.Find(slog.LevelError, "timer function failed")) == 1
		}, 5*time.Second, 10*time.Millisecond)

		assert.EqualValues(t, 3, calls.Load())
		assert.Len(t, rec.Find(slog.LevelWarn, "retrying"), 2)
	})
}

func TestApp_Stop(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)
	started := make(chan struct{})

	bp := function.NewBlueprint()
	require.NoError(t, bp.Timer(function.TimerConfig{Name: "slow", Schedule: "@every 1h", RunOnStartup: true})(
		func(ctx context.Context, inv *function.Invocation) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}))
	require.NoError(t, app.RegisterBlueprint(bp))
	require.NoError(t, app.Start(context.Background()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := app.Stop(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NoError(t, app.Stop(context.Background()), "stop is idempotent")
}
