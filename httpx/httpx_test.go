package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestServerAndClientRoundTrip(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.Group("/api").GET("/entities", func(c Context) error {
			return c.JSON(StatusOK, []map[string]string{{"entity_name": "Apple", "entity_type": "company"}})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL() + "/api/"))
	if client.BaseURL() != ts.BaseURL()+"/api" {
		t.Fatalf("trailing slash kept: %q", client.BaseURL())
	}

	var body []struct {
		EntityName string `json:"entity_name"`
	}
	resp, err := client.Get(context.Background(), "/entities", &body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if len(body) != 1 || body[0].EntityName != "Apple" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestHandlerErrorsRenderAsJSON(t *testing.T) {
	app := New()
	app.GET("/fail", func(c Context) error {
		return HTTPError(StatusNotFound, "No summary available for Nokia")
	})
	app.GET("/boom", func(c Context) error {
		return errors.New("database on fire")
	})

	ts := NewTestServer(app)
	defer ts.Close()
	client := NewClient(WithBaseURL(ts.BaseURL()))

	resp, err := client.Get(context.Background(), "/fail", nil)
	if resp == nil {
		t.Fatalf("expected response for error path")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Code != StatusNotFound || se.Temporary() {
		t.Fatalf("unexpected status error: %+v", se)
	}
	if se.Error() != `http 404: {"error":"No summary available for Nokia"}` {
		t.Fatalf("unexpected message: %q", se.Error())
	}

	_, err = client.Get(context.Background(), "/boom", nil)
	if !errors.As(err, &se) || se.Code != StatusInternalError {
		t.Fatalf("expected 500, got %v", err)
	}
	if se.Body != `{"error":"Internal Server Error"}` {
		t.Fatalf("internal error leaked: %q", se.Body)
	}
}

func TestStatusErrorTemporary(t *testing.T) {
	cases := map[int]bool{
		400: false,
		404: false,
		409: false,
		408: true,
		429: true,
		500: true,
		502: true,
		503: true,
	}
	for code, want := range cases {
		if got := (&StatusError{Code: code}).Temporary(); got != want {
			t.Errorf("Temporary(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestGetRawSendsQueryVerbatim(t *testing.T) {
	app := New()
	app.GET("/articles", func(c Context) error {
		return c.String(StatusOK, c.QueryString())
	})
	ts := NewTestServer(app)
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))
	const q = "entity_name=Apple+Hospitality&limit=5"
	body, err := client.GetRaw(context.Background(), "/articles", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != q {
		t.Fatalf("query rewritten: got %q want %q", body, q)
	}

	resp, err := client.Get(context.Background(), "/articles", nil, WithQuery(map[string]string{"limit": "3"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.String() != "limit=3" {
		t.Fatalf("unexpected query: %q", resp.String())
	}
}

func TestGetRawContextCancelled(t *testing.T) {
	release := make(chan struct{})
	app := New()
	app.GET("/slow", func(c Context) error {
		<-release
		return c.NoContent(StatusOK)
	})
	ts := NewTestServer(app)
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(WithBaseURL(ts.BaseURL())).GetRaw(ctx, "/slow", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestRegisterRoutesAndPostBody(t *testing.T) {
	app := New()
	RegisterRoutes(app,
		Route{Method: "post", Path: "/trigger", Handler: func(c Context) error {
			var req struct {
				Provider string `json:"provider"`
			}
			if err := c.Bind(&req); err != nil {
				return err
			}
			return c.JSON(StatusAccepted, map[string]string{"message": "started with " + req.Provider})
		}},
		Route{Method: http.MethodGet, Path: "/skipped"},
	)
	RegisterRoutes(nil, Route{Method: http.MethodGet, Path: "/x", Handler: func(Context) error { return nil }})

	ts := NewTestServer(app)
	defer ts.Close()
	client := NewClient(WithBaseURL(ts.BaseURL()))

	var out struct {
		Message string `json:"message"`
	}
	resp, err := client.Post(context.Background(), "/trigger", map[string]string{"provider": "groq"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusAccepted || out.Message != "started with groq" {
		t.Fatalf("unexpected response: %d %+v", resp.StatusCode(), out)
	}

	var se *StatusError
	if _, err := client.Get(context.Background(), "/skipped", nil); !errors.As(err, &se) || se.Code != StatusNotFound {
		t.Fatalf("route without handler was registered: %v", err)
	}
}

func TestClientHeaders(t *testing.T) {
	app := New()
	app.GET("/whoami", func(c Context) error {
		return c.String(StatusOK, c.Request().Header.Get("User-Agent")+"|"+c.Request().Header.Get("Accept"))
	})
	ts := NewTestServer(app)
	defer ts.Close()

	client := NewClient(
		WithBaseURL(ts.BaseURL()),
		WithHeaders(map[string]string{"User-Agent": "sentiscope"}),
		WithClientTimeout(time.Second),
	)
	body, err := client.GetRaw(context.Background(), "/whoami", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "sentiscope|application/json" {
		t.Fatalf("unexpected headers: %q", body)
	}
}

func TestServerMiddleware(t *testing.T) {
	server := NewServer(WithCORS("https://dash.example"))
	server.RegisterRoutes(func(a *App) {
		a.GET("/ok", func(c Context) error { return c.NoContent(StatusOK) })
		a.GET("/panic", func(c Context) error { panic("boom") })
	})
	ts := NewTestServer(server.Handler())
	defer ts.Close()

	get := func(path, origin string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.BaseURL()+path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp
	}

	if got := get("/ok", "https://dash.example").Header.Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("allowed origin not echoed: %q", got)
	}
	if got := get("/ok", "https://evil.example").Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
	if code := get("/panic", "").StatusCode; code != StatusInternalError {
		t.Fatalf("panic not recovered: %d", code)
	}
}

func TestServerStartStopsOnCancel(t *testing.T) {
	server := NewServer(WithAddress("127.0.0.1:0"), WithShutdownTimeout(time.Second))
	if server.Address() != "127.0.0.1:0" {
		t.Fatalf("unexpected address: %q", server.Address())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
