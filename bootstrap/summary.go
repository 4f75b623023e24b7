package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/ollamacmd/component"
	"github.com/kbukum/ollamacmd/logger"
)

// logSummary logs the startup line and, when w is set, prints the startup
// tree built from the components' Describe, Routes and Health.
func logSummary(log *logger.Logger, w io.Writer, name, version string, reg *component.Registry, took time.Duration) {
	log.Info("started", logger.Fields(
		"components", len(reg.All()),
		logger.FieldDuration, took.Milliseconds(),
	))
	if w != nil {
		_, _ = io.WriteString(w, renderSummary(name, version, reg, took))
	}
}

func renderSummary(name, version string, reg *component.Registry, took time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s started in %.2fs\n", name, version, took.Seconds())

	comps := reg.All()
	if len(comps) == 0 {
		b.WriteString("   └── no components registered\n\n")
		return b.String()
	}

	b.WriteString("\nComponents\n")
	var routes []component.Route
	for i, c := range comps {
		d := component.Description{Name: c.Name()}
		if dc, ok := c.(component.Describable); ok {
			d = dc.Describe()
			if d.Name == "" {
				d.Name = c.Name()
			}
		}
		line := d.Name
		if d.Type != "" {
			line += " [" + d.Type + "]"
		}
		if d.Details != "" {
			line += " " + d.Details
		}
		if d.Port > 0 {
			line += fmt.Sprintf(" (:%d)", d.Port)
		}
		fmt.Fprintf(&b, "   %s %s\n", branch(i, len(comps)), line)

		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(&b, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(&b, "   %s %-6s %s\n", branch(i, len(routes)), r.Method, r.Path)
		}
	}

	health := reg.HealthAll(context.Background())
	b.WriteString("\nHealth\n")
	for i, h := range health {
		msg := ""
		if h.Message != "" {
			msg = " (" + h.Message + ")"
		}
		fmt.Fprintf(&b, "   %s %s %s: %s%s\n", branch(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
	}
	b.WriteString("\n")
	return b.String()
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
