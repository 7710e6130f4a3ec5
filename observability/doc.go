// Package observability wires OpenTelemetry tracing and metrics for imgkit.
//
// When Config.Enabled is false nothing is exported; spans and instruments
// still work against the global no-op providers so callers never branch.
//
//	shutdown, err := observability.Setup(ctx, cfg, observability.ServiceInfo{Name: "imgkit"})
//	defer shutdown(ctx)
//
//	ctx, end := observability.Track(ctx, "s3compatible", "upload")
//	err := doUpload(ctx)
//	end(err)
package observability
