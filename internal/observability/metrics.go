package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SlowQueries counts SQL statements slower than the database threshold.
	SlowQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "myblog_db_slow_queries_total",
		Help: "Total number of SQL statements above the slow query threshold",
	})

	// PostsPublished counts draft to published transitions.
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "myblog_posts_published_total",
		Help: "Total number of posts transitioned to published",
	})

	// PostsCreated counts new posts by initial status.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"status"})

	// CommentsCreated counts accepted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "myblog_comments_created_total",
		Help: "Total number of comments created",
	})

	// CommentsModerated counts moderation toggles by resulting state.
	CommentsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_comments_moderated_total",
		Help: "Total number of comment moderation changes",
	}, []string{"active"})

	// EmailsSent counts outgoing mail by kind and outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_emails_sent_total",
		Help: "Total number of emails handed to the mail backend",
	}, []string{"kind", "result"})

	// RateLimited counts rejected requests by limiter name.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource"})
)
