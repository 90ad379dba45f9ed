package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memeverse_http_requests_total",
		Help: "HTTP requests by route template, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memeverse_http_request_duration_seconds",
		Help:    "Time from request receipt to response.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route"})

	LikesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memeverse_likes_total",
		Help: "Likes recorded.",
	})

	CommentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memeverse_comments_total",
		Help: "Comments recorded.",
	})

	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memeverse_uploads_total",
		Help: "Image uploads by result (ok, rejected, unauthorized, error).",
	}, []string{"result"})

	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memeverse_searches_total",
		Help: "Search requests served.",
	})

	CaptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memeverse_captions_total",
		Help: "Caption suggestions served.",
	})

	IngestItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memeverse_ingest_items_total",
		Help: "Catalog seeding items by result (processed, skipped, failed).",
	}, []string{"result"})

	MemesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memeverse_memes_total",
		Help: "Active memes in the catalog, refreshed on /stats.",
	})
)
