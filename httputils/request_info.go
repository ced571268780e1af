package httputils

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	requestInfoCtxKey ctxKey = iota
)

// SetRequestInfo returns a new context of the request with set (or re-set) RequestInfo.
func SetRequestInfo(r *http.Request, appVersion string) (out context.Context, res RequestInfo) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ipsl := strings.Split(xff, ", ")
		res.RealIP = ipsl[0]
		if len(ipsl) > 1 {
			res.ProxyIPs = ipsl[1:]
		}
	}
	res.UserAgent = r.UserAgent()
	res.RequestID = r.Header.Get("X-Request-Id")

	if res.RealIP == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			res.RealIP = host
		}
	}

	if res.RequestID == "" {
		res.RequestID = appCreatedRequestID()
	}
	res.AppVersion = appVersion

	out = context.WithValue(r.Context(), requestInfoCtxKey, res)

	return out, res
}

// GetRequestInfo returns RequestInfo from the context, zero value when not set.
func GetRequestInfo(ctx context.Context) (res RequestInfo) {
	res, _ = ctx.Value(requestInfoCtxKey).(RequestInfo)
	return res
}

// RequestInfo meta information of the request.
type RequestInfo struct {
	RealIP     string
	ProxyIPs   []string
	UserAgent  string
	RequestID  string
	AppVersion string
}

func (ri RequestInfo) FirstProxyIP() string {
	if len(ri.ProxyIPs) > 0 {
		return ri.ProxyIPs[0]
	}
	return ""
}

// application created
// ac-2006-01-02T15:04:05.000-<uuid>
func appCreatedRequestID() string {
	return "ac-" + time.Now().Format("2006-01-02T15:04:05.000") + "-" + uuid.NewString()
}
