// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for rate limiting
	MaxAttempts   int           // Maximum attempts per window
	CleanupPeriod time.Duration // How often to clean up old entries
	BanDuration   time.Duration // How long to ban after exceeding limit
}

// APIConfig limits GraphQL traffic per client IP.
func APIConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxAttempts:   120,
		CleanupPeriod: 10 * time.Minute,
		BanDuration:   5 * time.Minute,
	}
}

// OTPRequestConfig limits how often codes can be requested for one address.
// The ban lasts until the window would have reset.
func OTPRequestConfig(maxAttempts int, window time.Duration) *Config {
	return &Config{
		WindowSize:    window,
		MaxAttempts:   maxAttempts,
		CleanupPeriod: 2 * window,
		BanDuration:   window,
	}
}

// window is one identifier's current counting window. A zero bannedUntil means
// the identifier is not banned.
type window struct {
	start       time.Time
	count       int
	bannedUntil time.Time
}

func (w *window) banned(now time.Time) bool {
	return !w.bannedUntil.IsZero() && now.Before(w.bannedUntil)
}

// stale reports whether the window can be discarded: its ban ran out, or it
// was never banned and its span has passed.
func (w *window) stale(now time.Time, span time.Duration) bool {
	if !w.bannedUntil.IsZero() {
		return !now.Before(w.bannedUntil)
	}
	return now.Sub(w.start) > span
}

// MemoryRateLimiter counts attempts per identifier in fixed windows and bans
// identifiers that exceed the limit.
type MemoryRateLimiter struct {
	config  *Config
	windows map[string]*window
	mu      sync.RWMutex
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		config:  config,
		windows: make(map[string]*window),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// SetClock replaces the time source. Tests only.
func (rl *MemoryRateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}

// RateLimitInfo contains information about rate limit status
type RateLimitInfo struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// Allow records one attempt for identifier and reports whether it may proceed.
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[identifier]
	if ok && w.banned(now) {
		return false, &RateLimitInfo{
			ResetTime:  w.bannedUntil,
			RetryAfter: w.bannedUntil.Sub(now),
			Banned:     true,
		}
	}
	if !ok || w.stale(now, rl.config.WindowSize) {
		w = &window{start: now}
		rl.windows[identifier] = w
	}

	w.count++
	if w.count > rl.config.MaxAttempts {
		w.bannedUntil = now.Add(rl.config.BanDuration)
		return false, &RateLimitInfo{
			ResetTime:  w.bannedUntil,
			RetryAfter: rl.config.BanDuration,
			Banned:     true,
		}
	}

	return true, &RateLimitInfo{
		Allowed:   true,
		Remaining: rl.config.MaxAttempts - w.count,
		ResetTime: w.start.Add(rl.config.WindowSize),
	}
}

// Reset forgets all attempts for identifier.
func (rl *MemoryRateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, identifier)
}

// Len reports how many identifiers are tracked.
func (rl *MemoryRateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.windows)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, w := range rl.windows {
		if w.stale(now, rl.config.WindowSize) {
			delete(rl.windows, id)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (rl *MemoryRateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP headers
// are believed. An empty list trusts no one.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDR ranges and bare addresses.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (tp TrustedProxies) trusts(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. The first X-Forwarded-For hop, then
// X-Real-IP, replace the peer address only when the peer is a trusted proxy.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !tp.trusts(peer) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}
