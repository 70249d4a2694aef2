package mvc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/function"
	"github.com/junioryono/fnboot/internal/testutil"
	"github.com/junioryono/fnboot/mvc"
)

type greetingService struct {
	*testutil.Resource
}

func (s greetingService) Greet(name string) string {
	return "hello " + name
}

type greetingController struct {
	mvc.Base
}

func newGreetingController(base mvc.Base) mvc.Controller {
	return &greetingController{Base: base}
}

func (c *greetingController) RegisterRoutes() error {
	if err := c.Blueprint.Route(function.RouteConfig{Name: "greet", Route: "/greet/{name}"})(c.greet); err != nil {
		return err
	}
	return c.Blueprint.Route(function.RouteConfig{Name: "teapot", Route: "/teapot"})(c.teapot)
}

func (c *greetingController) greet(ctx context.Context, inv *function.Invocation) (any, error) {
	svc, err := fnboot.Resolve[greetingService](ctx, c.Container)
	if err != nil {
		return nil, err
	}
	return c.JSON(map[string]string{"message": svc.Greet(inv.Param("name"))}, http.StatusOK), nil
}

func (c *greetingController) teapot(inv *function.Invocation) (any, error) {
	return c.Error("short and stout", http.StatusTeapot), nil
}

type failingController struct {
	mvc.Base
}

func (c *failingController) RegisterRoutes() error {
	return testutil.ErrTest
}

func TestRegisterControllers(t *testing.T) {
	t.Parallel()

	t.Run("controllers serve scoped handlers", func(t *testing.T) {
		t.Parallel()

		var created []*testutil.Resource
		c := fnboot.New()
		require.NoError(t, c.AddScoped(func() greetingService {
			r := testutil.NewResource("greeting")
			created = append(created, r)
			return greetingService{r}
		}))

		bp := function.NewBlueprint()
		require.NoError(t, mvc.RegisterControllers(c, bp, nil, newGreetingController, nil))

		app := function.NewApp()
		require.NoError(t, app.RegisterBlueprint(bp))

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/greet/ada", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"hello ada"}`, w.Body.String())

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.JSONEq(t, `{"error":"short and stout"}`, w.Body.String())

		require.Len(t, created, 1)
		assert.Equal(t, 1, created[0].Closed())
	})

	t.Run("registration errors name the controller", func(t *testing.T) {
		t.Parallel()

		err := mvc.RegisterControllers(fnboot.New(), function.NewBlueprint(), nil,
			func(base mvc.Base) mvc.Controller { return &failingController{Base: base} })

		assert.ErrorIs(t, err, testutil.ErrTest)
		assert.Contains(t, err.Error(), "failingController")
	})

	t.Run("nil controller", func(t *testing.T) {
		t.Parallel()

		err := mvc.RegisterControllers(fnboot.New(), function.NewBlueprint(), nil,
			func(mvc.Base) mvc.Controller { return nil })

		assert.ErrorIs(t, err, mvc.ErrNilController)
	})
}

func TestBase(t *testing.T) {
	t.Parallel()

	c := fnboot.New()
	target := function.NewBlueprint()
	base := mvc.NewBase(c, target, nil)

	assert.Same(t, c, base.Container)
	assert.Same(t, target, base.Blueprint.Target())
	assert.NotNil(t, base.Logger)

	resp := base.JSON([]int{1, 2}, http.StatusCreated)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `[1,2]`, string(resp.Body))

	resp = base.Error("nope", http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"nope"}`, string(resp.Body))
}
