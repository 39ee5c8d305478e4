package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testClient(baseURL string) *Client {
	return NewClientWithBaseURL("test-key", 5*time.Second, 3, 5*time.Millisecond, 20*time.Millisecond, baseURL)
}

func TestGenerateSuccess(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3-70b-8192" {
			t.Errorf("unexpected model %q", req.Model)
		}
		w.Header().Set("X-Request-Id", "req_123")
		_ = json.NewEncoder(w).Encode(GenerateResponse{
			ID:      "chatcmpl-1",
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "hello"}}},
			Usage:   Usage{PromptTokens: 7, CompletionTokens: 1, TotalTokens: 8},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:    "llama3-70b-8192",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content() != "hello" {
		t.Errorf("unexpected content %q", resp.Content())
	}
	if resp.RequestID != "req_123" {
		t.Errorf("request id not captured, got %q", resp.RequestID)
	}
}

func TestGenerateRetriesOn500(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"internal"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(GenerateResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "recovered"}}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("Generate after retries: %v", err)
	}
	if resp.Content() != "recovered" {
		t.Errorf("unexpected content %q", resp.Content())
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestGenerateAuthError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status %d", authErr.StatusCode)
	}
}

func TestGenerateModelDecommissioned(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"The model 'llama2-70b' has been decommissioned","code":"model_decommissioned"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama2-70b", Messages: []Message{{Role: "user", Content: "x"}}})
	var mnf *ModelNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("expected ModelNotFoundError, got %T: %v", err, err)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	c := NewClientWithBaseURL("", time.Second, 1, time.Millisecond, time.Millisecond, "http://127.0.0.1:1")
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m"})
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestGenerateStream(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != true {
			t.Errorf("stream flag not set")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"Sales ", "are ", "up."}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var got strings.Builder
	err := c.GenerateStream(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}}, func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if got.String() != "Sales are up." {
		t.Errorf("unexpected streamed content %q", got.String())
	}
}

func TestLookupModel(t *testing.T) {
	mi, ok := LookupModel("llama3-70b-8192")
	if !ok || mi.ContextTokens != 8192 {
		t.Errorf("default model metadata wrong: %+v ok=%v", mi, ok)
	}
	if _, ok := LookupModel("no-such-model"); ok {
		t.Error("unknown model should not resolve")
	}
	list := ListModels()
	if len(list) < 4 {
		t.Errorf("catalog too small: %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Errorf("catalog not sorted at %d", i)
		}
	}
}
