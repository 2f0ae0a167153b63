// Package metric provides Prometheus-based metrics collection and an HTTP
// server for platform monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (event emission, delivery errors, NATS health) and custom
// component-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format.
//
// # Architecture
//
//  1. Core Metrics: platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: extensible registration for component-specific
//     metrics (MetricsRegistrar interface)
//  3. HTTP Server: metrics endpoint with a health check (Server type)
//
// Components follow the nil-registry pattern: when no registry is provided a
// component's metrics struct is nil and all recording is a no-op. This keeps
// tests free of Prometheus setup.
//
// # Basic Usage
//
//	registry := metric.NewRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Fatal(err)
//	    }
//	}()
//	defer server.Stop()
package metric
