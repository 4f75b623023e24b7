package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ollamacmd/component"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/logger"
	"github.com/kbukum/ollamacmd/security"
	"github.com/kbukum/ollamacmd/security/tlstest"
)

func testConfig() Config {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	return cfg
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 11480 || cfg.Host != "127.0.0.1" || cfg.MaxBodyBytes != 64<<10 {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected port error")
	}
}

func TestSetAddr(t *testing.T) {
	tests := []struct {
		addr    string
		host    string
		port    int
		wantErr bool
	}{
		{addr: "0.0.0.0:9000", host: "0.0.0.0", port: 9000},
		{addr: ":8081", host: "127.0.0.1", port: 8081},
		{addr: "[::1]:7000", host: "::1", port: 7000},
		{addr: "localhost", wantErr: true},
		{addr: "localhost:http", wantErr: true},
		{addr: "localhost:70000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			cfg := Config{Host: "127.0.0.1"}
			err := cfg.SetAddr(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetAddr: %v", err)
			}
			if cfg.Host != tt.host || cfg.Port != tt.port {
				t.Errorf("got %s:%d, want %s:%d", cfg.Host, cfg.Port, tt.host, tt.port)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.ApplyMiddleware()
	s.Engine().GET("/ping", func(c *gin.Context) { RespondOK(c, "pong") })
	comp := NewComponent(s)

	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"data":"pong"`) {
		t.Errorf("body = %s", body)
	}
	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("health = %+v", h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Serving() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Serving() {
		t.Error("still serving after Stop")
	}
}

func TestStartTLS(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := testConfig()
	cfg.TLS = security.TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile, ClientCAFile: certs.CAFile}

	s := New(cfg, logger.Nop())
	s.Engine().GET("/ping", func(c *gin.Context) { RespondOK(c, c.Request.Proto) })
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	if d := NewComponent(s).Describe(); !strings.HasPrefix(d.Details, "https://") {
		t.Errorf("details = %q", d.Details)
	}

	url := "https://" + s.Addr() + "/ping"
	anonymous := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: certs.CertPool},
	}}
	if resp, err := anonymous.Get(url); err == nil {
		resp.Body.Close()
		t.Fatal("expected handshake failure without a client certificate")
	}

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig:   &tls.Config{RootCAs: certs.CertPool, Certificates: []tls.Certificate{certs.Leaf}},
		ForceAttemptHTTP2: true,
	}}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"data":"HTTP/2.0"`) {
		t.Errorf("body = %s", body)
	}
}

func TestStartTLSBadCert(t *testing.T) {
	cfg := testConfig()
	cfg.TLS = security.TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}
	if err := New(cfg, logger.Nop()).Start(context.Background()); err == nil {
		t.Fatal("expected certificate error")
	}
}

func TestStartBindError(t *testing.T) {
	first := New(testConfig(), logger.Nop())
	if err := first.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer first.Stop(context.Background())

	cfg := testConfig()
	_, port, _ := strings.Cut(first.Addr(), ":")
	if cfg.Port, _ = strconv.Atoi(port); cfg.Port == 0 {
		t.Fatalf("bad addr %q", first.Addr())
	}
	if err := New(cfg, logger.Nop()).Start(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
}

func TestRoutesOrder(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	noop := func(*gin.Context) {}
	s.Engine().GET("/health", noop)
	s.Engine().POST("/v1/commands", noop)
	s.Engine().GET("/v1/models", noop)
	s.Engine().GET("/version", noop)

	routes := NewComponent(s).Routes()
	var paths []string
	for _, r := range routes {
		paths = append(paths, r.Path)
	}
	want := "/v1/commands,/v1/models,/health,/version"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("routes = %s, want %s", got, want)
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", apperrors.ModelNotFound("gpt-unknown"), http.StatusNotFound},
		{"queue full", apperrors.QueueFull(64), http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			RespondWithError(c, tt.err)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
