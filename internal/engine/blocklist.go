package engine

import (
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Blocklist - IP, заблокированные оператором вручную. Живет только в памяти процесса.
type Blocklist struct {
	mu         sync.RWMutex
	blockedIPs map[string]struct{}
	logger     *zap.Logger
}

func NewBlocklist(logger *zap.Logger) *Blocklist {
	return &Blocklist{
		blockedIPs: make(map[string]struct{}),
		logger:     logger.With(zap.String("mod", "blocklist")),
	}
}

// MarkAsBlocked возвращает false, если IP уже был в списке.
func (b *Blocklist) MarkAsBlocked(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blockedIPs[ip]; ok {
		return false
	}
	b.blockedIPs[ip] = struct{}{}
	b.logger.Info("ip blocked", zap.String("ip", ip))
	return true
}

func (b *Blocklist) Unblock(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blockedIPs[ip]; !ok {
		return false
	}
	delete(b.blockedIPs, ip)
	b.logger.Info("ip unblocked", zap.String("ip", ip))
	return true
}

func (b *Blocklist) IsBlocked(ip string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, blocked := b.blockedIPs[ip]
	return blocked
}

// List - отсортированная копия для снапшота и API.
func (b *Blocklist) List() []string {
	b.mu.RLock()
	out := make([]string, 0, len(b.blockedIPs))
	for ip := range b.blockedIPs {
		out = append(out, ip)
	}
	b.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Middleware отсекает запросы с заблокированных адресов. Ставится после middleware.RealIP.
func (b *Blocklist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r.RemoteAddr)
		if b.IsBlocked(ip) {
			b.logger.Warn("intercepted request from blocked ip",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("trace_id", TraceID(r.Context())))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success": false, "error": "ip_blocked", "reason": "manual_soc_intervention"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP срезает порт из RemoteAddr; RealIP кладет туда голый адрес.
func clientIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
