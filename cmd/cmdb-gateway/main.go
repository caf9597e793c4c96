// Command cmdb-gateway exposes the CMDB inventory operations over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cmdb-inventory-client/pkg/batch"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/client"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/cmdb"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})

	// Configuration from environment
	port := getEnv("PORT", "8080")
	esbURL := getEnv("ESB_URL", "")
	appCode := getEnv("BK_APP_CODE", "cmdb-inventory")
	appSecret := getEnv("BK_APP_SECRET", "")
	user := getEnv("BK_USERNAME", "admin")
	supplier := getEnv("BK_SUPPLIER_ACCOUNT", "0")
	redisURL := getEnv("REDIS_URL", "")

	// Setup Redis (optional: without it, responses are not cached)
	var redisClient *redis.Client
	if redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisURL,
		})

		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis")
	}

	// Create CMDB client
	cfg := client.DefaultConfig(esbURL, appCode, appSecret, user)
	cfg.Redis = redisClient

	cmdbClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create CMDB client")
	}
	defer cmdbClient.Close()

	batchCfg := batch.DefaultConfig()
	if v, err := strconv.Atoi(getEnv("BATCH_LIMIT", "")); err == nil && v > 0 {
		batchCfg.Limit = v
	}
	if v, err := strconv.Atoi(getEnv("BATCH_CONCURRENCY", "")); err == nil && v > 0 {
		batchCfg.MaxConcurrency = v
	}

	svc := cmdb.NewService(cmdbClient, batchCfg)

	// HTTP Server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/hosts", hostsHandler(svc, supplier))
	mux.HandleFunc("/api/v1/hosts/topo", hostTopoHandler(svc, supplier))

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("esb_url", esbURL).
		Int("batch_limit", batchCfg.Limit).
		Int("batch_concurrency", batchCfg.MaxConcurrency).
		Msg("Starting CMDB gateway")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				http.Error(w, fmt.Sprintf("redis not ready: %v", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// hostQuery holds the parsed query parameters of the host endpoints.
type hostQuery struct {
	bizID  int64
	fields []string
	ips    []string
}

func parseHostQuery(r *http.Request) (hostQuery, error) {
	var q hostQuery

	bizID, err := strconv.ParseInt(r.URL.Query().Get("biz_id"), 10, 64)
	if err != nil {
		return q, fmt.Errorf("biz_id must be an integer")
	}
	q.bizID = bizID
	q.fields = splitParam(r.URL.Query().Get("fields"))
	q.ips = splitParam(r.URL.Query().Get("ips"))

	return q, nil
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hostsHandler(svc *cmdb.Service, supplier string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseHostQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		hosts := svc.GetBusinessHost(ctx, q.bizID, supplier, q.fields, q.ips)
		writeJSON(w, hosts)
	}
}

func hostTopoHandler(svc *cmdb.Service, supplier string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseHostQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		groups := svc.GetBusinessHostTopo(ctx, q.bizID, supplier, q.fields, q.ips)
		writeJSON(w, groups)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
