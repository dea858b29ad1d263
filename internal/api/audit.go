package api

import (
	"log/slog"
	"net/http"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/metrics"
)

// recorder persists audit events through the buffered collector and mirrors
// them to the structured log for operators tailing the service.
type recorder struct {
	collector *audit.Collector
	metrics   *metrics.Metrics
}

// record captures one audited action. tenantID may be empty for actions that
// happen outside a tenant scope (e.g. a failed provision).
func (a *recorder) record(r *http.Request, tenantID, action string, detail map[string]any) {
	if detail == nil {
		detail = map[string]any{}
	}
	detail["ip"] = clientIP(r)
	if id := RequestIDFromContext(r.Context()); id != "" {
		detail["requestId"] = id
	}

	event := audit.Event{
		TenantID: tenantID,
		Action:   action,
		Context:  detail,
	}
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		event.PrincipalID = sess.PrincipalID
		detail["email"] = sess.Email
	}

	if a.collector != nil {
		a.collector.Record(event)
	}
	if a.metrics != nil {
		a.metrics.AuditEventsTotal.Inc()
	}

	slog.Info("audit",
		"action", action,
		"tenant_id", tenantID,
		"principal_id", event.PrincipalID,
		"ip", detail["ip"],
		"request_id", RequestIDFromContext(r.Context()),
	)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
