// Package observability registers the service's prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	logsSavedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "logs",
		Name:      "saved_total",
		Help:      "Number of workout logs saved, by workout type.",
	}, []string{"type"})

	xpAwardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "gamification",
		Name:      "xp_awarded_total",
		Help:      "Total XP credited to users.",
	})

	badgesUnlockedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "gamification",
		Name:      "badges_unlocked_total",
		Help:      "Number of badges unlocked, by badge id.",
	}, []string{"badge"})

	questsCompletedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "quests",
		Name:      "completed_total",
		Help:      "Number of quest completions, by quest type.",
	}, []string{"type"})

	syncAppliedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "sync",
		Name:      "applied_total",
		Help:      "Offline queue entries applied remotely, by operation.",
	}, []string{"operation"})

	syncFailedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "sync",
		Name:      "failed_total",
		Help:      "Offline queue apply failures, by operation.",
	}, []string{"operation"})

	syncQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "sync",
		Name:      "quarantined_total",
		Help:      "Offline queue entries quarantined as unrecoverable, by operation.",
	}, []string{"operation"})

	lastDrainGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tribe_service",
		Subsystem: "sync",
		Name:      "last_drain_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed queue drain.",
	})

	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits for derived aggregates, by kind.",
	}, []string{"kind"})

	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribe_service",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses for derived aggregates, by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		logsSavedCounter,
		xpAwardedCounter,
		badgesUnlockedCounter,
		questsCompletedCounter,
		syncAppliedCounter,
		syncFailedCounter,
		syncQuarantinedCounter,
		lastDrainGauge,
		cacheHitCounter,
		cacheMissCounter,
	)
}

// RecordLogSaved counts a stored workout log.
func RecordLogSaved(workoutType string) {
	logsSavedCounter.WithLabelValues(workoutType).Inc()
}

// RecordXPAwarded adds to the XP counter.
func RecordXPAwarded(xp int) {
	if xp > 0 {
		xpAwardedCounter.Add(float64(xp))
	}
}

// RecordBadgeUnlocked counts a badge award.
func RecordBadgeUnlocked(badgeID string) {
	badgesUnlockedCounter.WithLabelValues(badgeID).Inc()
}

// RecordQuestCompleted counts a quest completion.
func RecordQuestCompleted(questType string) {
	questsCompletedCounter.WithLabelValues(questType).Inc()
}

// RecordSyncApplied counts a successfully replayed queue entry.
func RecordSyncApplied(operation string) {
	syncAppliedCounter.WithLabelValues(operation).Inc()
}

// RecordSyncFailed counts a failed replay attempt.
func RecordSyncFailed(operation string) {
	syncFailedCounter.WithLabelValues(operation).Inc()
}

// RecordSyncQuarantined counts an entry isolated as unrecoverable.
func RecordSyncQuarantined(operation string) {
	syncQuarantinedCounter.WithLabelValues(operation).Inc()
}

// RecordDrainFinished updates the drain watermark gauge.
func RecordDrainFinished(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastDrainGauge.Set(float64(ts.Unix()))
}

// RecordCacheHit counts a cache hit for the given aggregate kind.
func RecordCacheHit(kind string) {
	cacheHitCounter.WithLabelValues(kind).Inc()
}

// RecordCacheMiss counts a cache miss for the given aggregate kind.
func RecordCacheMiss(kind string) {
	cacheMissCounter.WithLabelValues(kind).Inc()
}
