// Package config loads process configuration for the agent and the dev
// ingestion server. Precedence: ENV > CLI > defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/mkraev/metricflow/internal/misc"
)

const (
	defaultServerAddr      = "http://localhost:8080"
	defaultListenAddr      = ":8080"
	defaultNamespace       = "metricflow/agent"
	defaultPollInterval    = 2 * time.Second
	defaultPointInterval   = 5 * time.Second
	defaultSummaryInterval = 10 * time.Second
	defaultBatchCapacity   = 20
	backendHTTP            = "http"
	backendPromRemoteWrite = "promwrite"
)

// AgentConfig drives the demo agent binary.
type AgentConfig struct {
	Address           string
	Backend           string
	Namespace         string
	Key               string
	PollInterval      time.Duration
	PointInterval     time.Duration
	SummaryInterval   time.Duration
	BatchCapacity     int
	IncludeTimestamps bool
}

// ServerConfig drives the dev ingestion server binary.
type ServerConfig struct {
	Address string
	Key     string
}

// LoadAgentConfig parses flags and environment for the agent.
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		addrOpt      string
		backendOpt   string
		namespaceOpt string
		keyOpt       string
		pollOpt      time.Duration
		pointOpt     time.Duration
		summaryOpt   time.Duration
		capOpt       int
		tsOpt        bool
	)

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("backend address (host:port or URL), default: %s", defaultServerAddr))
	fs.StringVar(&backendOpt, "backend", "", "backend kind: http or promwrite, default: http")
	fs.StringVar(&namespaceOpt, "n", "", fmt.Sprintf("metric namespace, default: %s", defaultNamespace))
	fs.StringVar(&keyOpt, "k", "", "secret key for the HashSHA256 header")
	fs.DurationVar(&pollOpt, "i", 0, fmt.Sprintf("stat poll interval, default: %s", defaultPollInterval))
	fs.DurationVar(&pointOpt, "p", 0, fmt.Sprintf("point flush interval, default: %s", defaultPointInterval))
	fs.DurationVar(&summaryOpt, "s", 0, fmt.Sprintf("summary flush interval, default: %s", defaultSummaryInterval))
	fs.IntVar(&capOpt, "b", 0, fmt.Sprintf("batch capacity (capped at %d), default: %d", defaultBatchCapacity, defaultBatchCapacity))
	fs.BoolVar(&tsOpt, "t", false, "stamp discrete points with the write time")

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	addr := strings.TrimSpace(misc.Getenv("ADDRESS", ""))
	if addr == "" {
		addr = strings.TrimSpace(addrOpt)
	}
	if addr == "" {
		addr = defaultServerAddr
	}
	addr = normalizeAddressURL(addr)
	if _, err := url.ParseRequestURI(addr); err != nil {
		return AgentConfig{}, fmt.Errorf("invalid backend address: %q", addr)
	}

	backend := strings.TrimSpace(strings.ToLower(misc.Getenv("BACKEND", "")))
	if backend == "" {
		backend = strings.TrimSpace(strings.ToLower(backendOpt))
	}
	if backend == "" {
		backend = backendHTTP
	}
	if backend != backendHTTP && backend != backendPromRemoteWrite {
		return AgentConfig{}, fmt.Errorf("unknown backend %q", backend)
	}

	namespace := strings.TrimSpace(misc.Getenv("NAMESPACE", ""))
	if namespace == "" {
		namespace = strings.TrimSpace(namespaceOpt)
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	key := strings.TrimSpace(misc.Getenv("KEY", ""))
	if key == "" {
		key = strings.TrimSpace(keyOpt)
	}

	poll := pickInterval("POLL_INTERVAL", pollOpt, defaultPollInterval)
	if poll <= 0 {
		return AgentConfig{}, fmt.Errorf("poll interval must be > 0, got %v", poll)
	}
	point := pickInterval("POINT_FLUSH_INTERVAL", pointOpt, defaultPointInterval)
	if point <= 0 {
		return AgentConfig{}, fmt.Errorf("point flush interval must be > 0, got %v", point)
	}
	summary := pickInterval("SUMMARY_FLUSH_INTERVAL", summaryOpt, defaultSummaryInterval)
	if summary <= 0 {
		return AgentConfig{}, fmt.Errorf("summary flush interval must be > 0, got %v", summary)
	}

	capacity := misc.GetInt("BATCH_CAPACITY", 0)
	if capacity == 0 {
		capacity = capOpt
	}
	if capacity <= 0 {
		capacity = defaultBatchCapacity
	}

	includeTS := misc.GetBool("INCLUDE_TIMESTAMPS", tsOpt)

	return AgentConfig{
		Address:           addr,
		Backend:           backend,
		Namespace:         namespace,
		Key:               key,
		PollInterval:      poll,
		PointInterval:     point,
		SummaryInterval:   summary,
		BatchCapacity:     capacity,
		IncludeTimestamps: includeTS,
	}, nil
}

// LoadServerConfig parses flags and environment for the dev server.
func LoadServerConfig(args []string, out io.Writer) (ServerConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("ingestd", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt, keyOpt string
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("listen address, default: %s", defaultListenAddr))
	fs.StringVar(&keyOpt, "k", "", "secret key for the HashSHA256 header")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	addr := strings.TrimSpace(misc.Getenv("ADDRESS", ""))
	if addr == "" {
		addr = strings.TrimSpace(addrOpt)
	}
	if addr == "" {
		addr = defaultListenAddr
	}

	key := strings.TrimSpace(misc.Getenv("KEY", ""))
	if key == "" {
		key = strings.TrimSpace(keyOpt)
	}

	return ServerConfig{Address: addr, Key: key}, nil
}

// pickInterval applies ENV > CLI > default for one duration knob.
func pickInterval(envKey string, cliVal, def time.Duration) time.Duration {
	if v := misc.GetDuration(envKey, 0); v != 0 || strings.TrimSpace(misc.Getenv(envKey, "")) != "" {
		return v
	}
	if cliVal > 0 {
		return cliVal
	}
	return def
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultServerAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
