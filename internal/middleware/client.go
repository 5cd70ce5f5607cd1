// AngelaMos | 2026
// client.go

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const ClientMetaKey contextKey = "client_meta"

type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// ClientIP prefers the last X-Forwarded-For hop, which is the one appended
// by our own proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := ClientMeta{
			IPAddress: ClientIP(r),
			UserAgent: r.UserAgent(),
		}
		ctx := context.WithValue(r.Context(), ClientMetaKey, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetClientMeta(ctx context.Context) ClientMeta {
	if meta, ok := ctx.Value(ClientMetaKey).(ClientMeta); ok {
		return meta
	}
	return ClientMeta{}
}
