package server

import (
	"context"
	"sort"

	"github.com/kbukum/ollamacmd/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server under the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name implements component.Component.
func (c *Component) Name() string { return componentName }

// Start implements component.Component.
func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

// Stop implements component.Component.
func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// Health implements component.Component.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.server.Serving() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not serving"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: c.server.Addr()}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	scheme := "http://"
	if c.server.config.TLS.Enabled() {
		scheme = "https://"
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: scheme + c.server.Addr(),
		Port:    c.server.config.Port,
	}
}

// systemPaths sort after the API routes.
var systemPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

// Routes implements component.RouteProvider.
func (c *Component) Routes() []component.Route {
	gr := c.server.engine.Routes()
	sort.Slice(gr, func(i, j int) bool {
		if si, sj := systemPaths[gr[i].Path], systemPaths[gr[j].Path]; si != sj {
			return !si
		}
		if gr[i].Path != gr[j].Path {
			return gr[i].Path < gr[j].Path
		}
		return gr[i].Method < gr[j].Method
	})

	routes := make([]component.Route, 0, len(gr))
	for _, r := range gr {
		routes = append(routes, component.Route{Method: r.Method, Path: r.Path})
	}
	return routes
}
