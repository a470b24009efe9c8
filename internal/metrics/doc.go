// Package metrics provides the observability hooks of the editing service.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	session := editor.New(text, onChange, editor.WithRecorder(recorder))
//
// To enable metrics, swap NoopRecorder for the Prometheus implementation:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
