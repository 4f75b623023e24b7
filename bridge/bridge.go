package bridge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ollamacmd/auth/jwt"
	"github.com/kbukum/ollamacmd/command"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/logger"
	"github.com/kbukum/ollamacmd/server"
	"github.com/kbukum/ollamacmd/server/endpoint"
	"github.com/kbukum/ollamacmd/server/middleware"
	"github.com/kbukum/ollamacmd/sse"
	"github.com/kbukum/ollamacmd/validation"
)

// maxLineLen bounds a command line.
const maxLineLen = 512

// Deps are the collaborators of a Bridge. Health and Log are optional.
type Deps struct {
	Handler    *command.Handler
	Hub        *sse.Hub
	Translator *feedback.Translator
	Health     endpoint.HealthChecker
	Service    string
	Version    string
	Log        *logger.Logger
}

// Bridge serves the command API.
type Bridge struct {
	cfg    Config
	deps   Deps
	tokens *jwt.Service
	log    *logger.Logger
}

// New creates a Bridge. cfg must have had ApplyDefaults called.
func New(cfg Config, d Deps) (*Bridge, error) {
	b := &Bridge{cfg: cfg, deps: d, log: logger.Named(d.Log, "bridge")}
	if cfg.JWT.Enabled() {
		tokens, err := jwt.NewService(&cfg.JWT)
		if err != nil {
			return nil, err
		}
		b.tokens = tokens
	}
	return b, nil
}

// Register adds the bridge routes to e.
func (b *Bridge) Register(e *gin.Engine) {
	e.GET("/health", endpoint.Health(b.deps.Service, b.deps.Version, b.deps.Health))
	e.GET("/version", endpoint.Version())

	v1 := e.Group("/v1")
	if b.tokens != nil {
		v1.Use(middleware.Auth(middleware.AuthConfig{
			Validator:  b.tokens.Validate,
			QueryParam: "access_token",
		}))
	}
	v1.POST("/commands", middleware.RateLimit(middleware.RateLimitConfig{
		PerMinute: b.cfg.RateLimit,
		KeyFunc:   sessionKey,
	}), b.postCommand)
	v1.GET("/events/:session", b.events)
	v1.GET("/models", b.models)
	v1.GET("/suggestions", b.suggestions)
}

// CommandRequest is the body of POST /v1/commands.
type CommandRequest struct {
	Session string `json:"session" validate:"required,session_id"`
	Line    string `json:"line" validate:"required,max=512"`
}

// CommandResponse describes an accepted command.
type CommandResponse struct {
	InvocationID string `json:"invocation_id"`
	Session      string `json:"session"`
	SubCommand   string `json:"subcommand"`
	// Model is the current model after a "model" command.
	Model string `json:"model,omitempty"`
}

func (b *Bridge) postCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "malformed JSON").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := b.authorize(c, req.Session); err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := logger.ContextWithSessionID(c.Request.Context(), req.Session)
	c.Request = c.Request.WithContext(ctx)

	sink := b.sink(req.Session)
	ticket, err := b.deps.Handler.Execute(ctx, req.Line, sink)
	if err != nil {
		b.log.WithContext(ctx).Debug("command rejected", logger.MergeWithError(nil, err))
		sink.reject(req.Line, err)
		server.RespondWithError(c, err)
		return
	}

	resp := CommandResponse{InvocationID: ticket.ID, Session: req.Session, SubCommand: ticket.Sub}
	if ticket.Sub == command.SubModel {
		resp.Model, _ = b.deps.Handler.Registry().Current()
		server.RespondOK(c, resp)
		return
	}
	server.RespondAccepted(c, resp)
}

func (b *Bridge) events(c *gin.Context) {
	session := c.Param("session")
	if err := validation.New().SessionID("session", session).Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := b.authorize(c, session); err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := logger.ContextWithSessionID(c.Request.Context(), session)
	log := b.log.WithContext(ctx)
	log.Debug("event stream opened")
	sse.ServeSSE(b.deps.Hub, c.Writer, c.Request.WithContext(ctx), session, b.cfg.ClientBuffer)
	log.Debug("event stream closed")
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Current string   `json:"current,omitempty"`
}

func (b *Bridge) models(c *gin.Context) {
	reg := b.deps.Handler.Registry()
	current, _ := reg.Current()
	server.RespondOK(c, ModelsResponse{Models: reg.Models(), Current: current})
}

// SuggestionsResponse is the body of GET /v1/suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (b *Bridge) suggestions(c *gin.Context) {
	line := c.Query("line")
	if len(line) > maxLineLen {
		server.RespondWithError(c, apperrors.InvalidInput("line", "too long"))
		return
	}
	s := b.deps.Handler.Suggest(line)
	if s == nil {
		s = []string{}
	}
	server.RespondOK(c, SuggestionsResponse{Suggestions: s})
}

func (b *Bridge) sink(session string) *hubSink {
	return newHubSink(b.deps.Hub, session, b.deps.Translator, b.log)
}

// authorize checks a session-bound token against session.
func (b *Bridge) authorize(c *gin.Context, session string) error {
	v, ok := c.Get(middleware.ContextKeyClaims)
	if !ok {
		return nil
	}
	if claims, ok := v.(*jwt.Claims); ok && !claims.Allows(session) {
		return apperrors.New(apperrors.ErrCodeUnauthorized, "Token is not valid for this session.", http.StatusForbidden)
	}
	return nil
}

// sessionKey rate-limits by the session in the body, falling back to the
// client IP. The body stays cached for the handler.
func sessionKey(c *gin.Context) string {
	var req CommandRequest
	if err := c.ShouldBindBodyWithJSON(&req); err == nil && validation.IsSessionID(req.Session) {
		return "session:" + req.Session
	}
	return "ip:" + c.ClientIP()
}
