package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type GridCfg struct {
	Workers   int
	ChunkSize int
	MaxK      int
}

type StoreCfg struct {
	RedisAddr string
	ColumnTTL time.Duration
	OpTimeout time.Duration
	// per column-name-prefix TTL overrides, "tmp=1m,daily=24h"
	TTLOverrides map[string]time.Duration
}

type Config struct {
	Addr          string
	LogLevel      string
	LogConsole    bool
	LogSampleN    int
	H3Res         int
	GeomCacheSize int
	MaxBodyBytes  int64
	Grid          GridCfg
	Store         StoreCfg
	Metrics       MetricsCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}

	return Config{
		Addr:          getenv("ADDR", ":8090"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogConsole:    getbool("LOG_CONSOLE", false),
		LogSampleN:    getint("LOG_SAMPLE_N", 0),
		H3Res:         res,
		GeomCacheSize: getint("GEOM_CACHE_SIZE", 4096),
		MaxBodyBytes:  int64(getuint64("MAX_BODY_BYTES", 32<<20)),
		Grid: GridCfg{
			Workers:   getint("GRID_WORKERS", 0),
			ChunkSize: getint("GRID_CHUNK_SIZE", 4096),
			MaxK:      getint("MAX_GRID_K", 50),
		},
		Store: StoreCfg{
			RedisAddr:    getenv("REDIS_ADDR", ""),
			ColumnTTL:    getduration("COLUMN_TTL", time.Hour),
			OpTimeout:    getduration("STORE_OP_TIMEOUT", 250*time.Millisecond),
			TTLOverrides: parseDurationMap(getenv("COLUMN_TTL_OVERRIDES", "")),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

// TTLFor picks the longest matching prefix override for a column name.
func (c StoreCfg) TTLFor(name string) time.Duration {
	best, ttl := -1, c.ColumnTTL
	for prefix, d := range c.TTLOverrides {
		if strings.HasPrefix(name, prefix) && len(prefix) > best {
			best, ttl = len(prefix), d
		}
	}
	return ttl
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getuint64(k string, def uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "prefix=5m,other=30s" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
