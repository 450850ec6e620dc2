package middleware

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	RequestsTotal   atomic.Int64
	RequestsSuccess atomic.Int64
	RequestsFailed  atomic.Int64
	AnalysesTotal   atomic.Int64
	ChatsTotal      atomic.Int64
	AIFallbacks     atomic.Int64
	UploadsTotal    atomic.Int64
	InsightsTotal   atomic.Int64
	StartTime       time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	uptime := time.Since(globalMetrics.StartTime)

	return map[string]interface{}{
		"requests_total":   globalMetrics.RequestsTotal.Load(),
		"requests_success": globalMetrics.RequestsSuccess.Load(),
		"requests_failed":  globalMetrics.RequestsFailed.Load(),
		"analyses_total":   globalMetrics.AnalysesTotal.Load(),
		"chats_total":      globalMetrics.ChatsTotal.Load(),
		"ai_fallbacks":     globalMetrics.AIFallbacks.Load(),
		"uploads_total":    globalMetrics.UploadsTotal.Load(),
		"insights_total":   globalMetrics.InsightsTotal.Load(),
		"uptime_seconds":   int64(uptime.Seconds()),
	}
}

func IncrementAnalyses() { globalMetrics.AnalysesTotal.Add(1) }
func IncrementChats()    { globalMetrics.ChatsTotal.Add(1) }
func IncrementUploads()  { globalMetrics.UploadsTotal.Add(1) }
func IncrementInsights() { globalMetrics.InsightsTotal.Add(1) }

// RecordAIFallback matches the gateway's OnFallback hook.
func RecordAIFallback(op string, err error) { globalMetrics.AIFallbacks.Add(1) }

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			globalMetrics.RequestsSuccess.Add(1)
		} else {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics in JSON format
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}
