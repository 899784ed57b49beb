package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkin"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Requisições HTTP por rota e status",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "Latência das requisições HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "logins_total", Help: "Tentativas de login por método e resultado",
	}, []string{"method", "result"})
	Checkins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "checkins_total", Help: "Criação de checkins por resultado",
	}, []string{"result"})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_lookups_total", Help: "Consultas ao cache por chave e resultado",
	}, []string{"cache", "result"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "Latência do ping ao banco",
		Buckets: prometheus.DefBuckets,
	})
	DBUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "db_up", Help: "1 quando o último ping ao banco funcionou",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, Logins, Checkins, CacheLookups, DBPing, DBUp)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration, err error) {
	DBPing.Observe(d.Seconds())
	if err != nil {
		DBUp.Set(0)
		return
	}
	DBUp.Set(1)
}

func ObserveLogin(method string, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	Logins.WithLabelValues(method, result).Inc()
}

func CacheHit(cache string)  { CacheLookups.WithLabelValues(cache, "hit").Inc() }
func CacheMiss(cache string) { CacheLookups.WithLabelValues(cache, "miss").Inc() }
