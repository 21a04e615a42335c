package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *resolver {
	t.Helper()
	reg := newRegistry()
	require.NoError(t, reg.Register(reflect.TypeOf((*Request)(nil)), func(r *Request) (any, error) {
		return r, nil
	}))
	return &resolver{registry: reg, providers: make(map[reflect.Type]reflect.Value)}
}

func testRequest(method, target string) *Request {
	return newRequest(httptest.NewRequest(method, target, nil), nil)
}

func invalidReason(t *testing.T, err error) HandlerErrorReason {
	t.Helper()
	var ihe *InvalidHandlerError
	require.ErrorAs(t, err, &ihe)
	return ihe.Reason
}

func TestResolve_RegistrationFailures(t *testing.T) {
	t.Parallel()

	t.Run("not a function", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		_, err := rs.resolve("not a handler", nil)
		require.Equal(t, ReasonNotAFunction, invalidReason(t, err))
	})

	t.Run("variadic handler", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		_, err := rs.resolve(func(rest ...string) error { return nil }, nil)
		require.Equal(t, ReasonVariadic, invalidReason(t, err))
	})

	t.Run("no results", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		_, err := rs.resolve(func() {}, nil)
		require.Equal(t, ReasonBadReturnShape, invalidReason(t, err))
	})

	t.Run("first result not a response", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		_, err := rs.resolve(func() (string, error) { return "", nil }, nil)
		require.Equal(t, ReasonBadReturnShape, invalidReason(t, err))
	})

	t.Run("parameter typed as any", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		_, err := rs.resolve(func(dep any) error { return nil }, nil)
		require.Equal(t, ReasonMissingType, invalidReason(t, err))
	})

	t.Run("unknown dependency", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)
		type mystery struct{ N int }
		_, err := rs.resolve(func(m mystery) error { return nil }, nil)
		require.Equal(t, ReasonInvalidDep, invalidReason(t, err))
	})

	t.Run("failure happens before any request is served", func(t *testing.T) {
		t.Parallel()
		app := New()
		app.GET("/things", func(dep any) error { return nil })
		require.Error(t, app.Err())

		// The broken route was never mounted.
		w := httptest.NewRecorder()
		app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

type depA struct{ B string }
type depB struct{ A string }

func TestResolve_DependencyCycle(t *testing.T) {
	t.Parallel()

	rs := newTestResolver(t)

	// A needs B, B needs A.
	_, v, err := checkProvider(func(b depB) depA { return depA{} })
	require.NoError(t, err)
	rs.providers[reflect.TypeOf(depA{})] = v

	_, v, err = checkProvider(func(a depA) depB { return depB{} })
	require.NoError(t, err)
	rs.providers[reflect.TypeOf(depB{})] = v

	_, err = rs.resolve(func(a depA) error { return nil }, nil)
	var ihe *InvalidHandlerError
	require.ErrorAs(t, err, &ihe)
	require.Equal(t, ReasonDependencyCycle, ihe.Reason)
	require.Equal(t, []string{"internal.depA", "internal.depB", "internal.depA"}, ihe.Chain)
}

func TestResolve_Providers(t *testing.T) {
	t.Parallel()

	t.Run("provider chain resolves", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)

		type leaf struct{ Name string }
		type branch struct{ L leaf }

		_, v, err := checkProvider(func() leaf { return leaf{Name: "leaf"} })
		require.NoError(t, err)
		rs.providers[reflect.TypeOf(leaf{})] = v

		_, v, err = checkProvider(func(l leaf) branch { return branch{L: l} })
		require.NoError(t, err)
		rs.providers[reflect.TypeOf(branch{})] = v

		var got branch
		pl, err := rs.resolve(func(b branch) error {
			got = b
			return nil
		}, nil)
		require.NoError(t, err)

		_, err = pl.invoke(testRequest(http.MethodGet, "/"))
		require.NoError(t, err)
		require.Equal(t, "leaf", got.L.Name)
	})

	t.Run("provider error surfaces as extractor failure", func(t *testing.T) {
		t.Parallel()
		rs := newTestResolver(t)

		type unlucky struct{}
		boom := errors.New("boom")
		_, v, err := checkProvider(func() (unlucky, error) { return unlucky{}, boom })
		require.NoError(t, err)
		rs.providers[reflect.TypeOf(unlucky{})] = v

		pl, err := rs.resolve(func(u unlucky) error { return nil }, nil)
		require.NoError(t, err)

		_, err = pl.invoke(testRequest(http.MethodGet, "/"))
		var ee *ExtractorError
		require.ErrorAs(t, err, &ee)
		require.ErrorIs(t, err, boom)
	})

	t.Run("bad provider shapes", func(t *testing.T) {
		t.Parallel()
		_, _, err := checkProvider("nope")
		require.Error(t, err)
		_, _, err = checkProvider(func() error { return nil })
		require.Error(t, err)
		_, _, err = checkProvider(func() (int, string) { return 0, "" })
		require.Error(t, err)
	})
}

func TestResolve_ContextAndRequest(t *testing.T) {
	t.Parallel()

	rs := newTestResolver(t)

	var gotCtx context.Context
	var gotReq *Request
	pl, err := rs.resolve(func(ctx context.Context, r *Request) error {
		gotCtx = ctx
		gotReq = r
		return nil
	}, nil)
	require.NoError(t, err)
	require.Len(t, pl.resolvers, 2)

	r := testRequest(http.MethodGet, "/")
	resp, err := pl.invoke(r)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode())
	require.Same(t, r, gotReq)
	require.NotNil(t, gotCtx)
}

type echoExtractable struct {
	Path string
}

func (e *echoExtractable) ExtractFrom(r *Request) error {
	e.Path = r.URL.Path
	return nil
}

func TestResolve_Extractable(t *testing.T) {
	t.Parallel()

	rs := newTestResolver(t)

	var byValue echoExtractable
	var byPointer *echoExtractable
	pl, err := rs.resolve(func(v echoExtractable, p *echoExtractable) error {
		byValue = v
		byPointer = p
		return nil
	}, nil)
	require.NoError(t, err)

	_, err = pl.invoke(testRequest(http.MethodGet, "/somewhere"))
	require.NoError(t, err)
	require.Equal(t, "/somewhere", byValue.Path)
	require.Equal(t, "/somewhere", byPointer.Path)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("duplicate registration fails", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry()
		typ := reflect.TypeOf("")
		require.NoError(t, reg.Register(typ, func(r *Request) (any, error) { return "x", nil }))
		err := reg.Register(typ, func(r *Request) (any, error) { return "y", nil })
		require.ErrorIs(t, err, ErrDuplicateExtractor)
	})

	t.Run("frozen registry rejects registrations", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry()
		reg.Freeze()
		err := reg.Register(reflect.TypeOf(""), func(r *Request) (any, error) { return "", nil })
		require.ErrorIs(t, err, ErrRegistryFrozen)
	})

	t.Run("interface lookup prefers exact match", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry()

		errType := reflect.TypeOf((*error)(nil)).Elem()
		require.NoError(t, reg.Register(errType, func(r *Request) (any, error) { return nil, nil }))

		concrete := reflect.TypeOf((*HTTPError)(nil))
		require.NoError(t, reg.Register(concrete, func(r *Request) (any, error) { return &HTTPError{}, nil }))

		// *HTTPError implements error, but the exact entry wins.
		fn, ok := reg.Lookup(concrete)
		require.True(t, ok)
		out, err := fn(nil)
		require.NoError(t, err)
		require.IsType(t, &HTTPError{}, out)

		// A type with only an interface entry falls back to it.
		_, ok = reg.Lookup(reflect.TypeOf((*RequestValidationError)(nil)))
		require.True(t, ok)
	})
}
