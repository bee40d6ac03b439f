// Package prometheus renders tokenauth engine metrics in the Prometheus
// text exposition format.
//
// Counters are named tokenauth_*_total. The validate and login latency
// histograms are tokenauth_validate_latency_seconds and
// tokenauth_login_latency_seconds. Nothing is registered globally; callers
// mount [Exporter.Handler] where they want it.
package prometheus
