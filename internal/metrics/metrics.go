package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	devSessions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unc",
		Name:      "dev_sessions_total",
		Help:      "Dev sessions that finished, by outcome.",
	}, []string{"outcome"})

	watcherSpawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unc",
		Name:      "watcher_spawns_total",
		Help:      "Watcher spawn attempts by role and result.",
	}, []string{"role", "result"})

	watcherTerminations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unc",
		Name:      "watcher_terminations_total",
		Help:      "Terminations of watcher processes that were still running.",
	}, []string{"role"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "unc",
		Name:      "build_info",
		Help:      "Build metadata for the running unc binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(devSessions, watcherSpawns, watcherTerminations, buildInfo)
}

// Registry returns the Prometheus registry containing all unc metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveSession counts a finished dev session.
func ObserveSession(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	devSessions.WithLabelValues(outcome).Inc()
}

// ObserveSpawn counts a spawn attempt for a watcher role.
func ObserveSpawn(role string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	watcherSpawns.WithLabelValues(roleLabel(role), result).Inc()
}

// ObserveTermination counts a terminate request for a watcher role.
func ObserveTermination(role string) {
	watcherTerminations.WithLabelValues(roleLabel(role)).Inc()
}

// SessionCount returns the counter for sessions with the given outcome.
func SessionCount(outcome string) prometheus.Counter {
	return devSessions.WithLabelValues(outcome)
}

// TerminationCount returns the termination counter for a role.
func TerminationCount(role string) prometheus.Counter {
	return watcherTerminations.WithLabelValues(roleLabel(role))
}

// SpawnCount returns the spawn counter for a role and result.
func SpawnCount(role, result string) prometheus.Counter {
	return watcherSpawns.WithLabelValues(roleLabel(role), result)
}

func roleLabel(role string) string {
	if role == "" {
		return "unknown"
	}
	return role
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
