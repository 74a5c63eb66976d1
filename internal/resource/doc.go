// Package resource implements the throttling controller used by the load harness.
//
// The Controller governs two resource types:
//
//   - Concurrency: limit how many workers drive a database at once
//   - IO: rate-limit bytes written to the storage backend
//
// # Architecture
//
//	┌───────────────────────────────────────────┐
//	│                Controller                 │
//	├─────────────────────┬─────────────────────┤
//	│  Workers (sem)      │  IO Rate Limiter    │
//	│                     │  (token bucket)     │
//	├─────────────────────┼─────────────────────┤
//	│  AcquireWorker      │  AcquireIO          │
//	│  TryAcquireWorker   │  TryAcquireIO       │
//	│  ReleaseWorker      │  ThrottledFS        │
//	└─────────────────────┴─────────────────────┘
//
// # Worker Limits
//
//	rc := resource.NewController(resource.Config{MaxWorkers: 4})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # IO Rate Limiting
//
// Token bucket rate limiter that paces backend writes, emulating a slow
// storage card:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 64 * 1024,
//	})
//
//	db, err := sfdb.Open(path, 1000, 32,
//	    sfdb.WithFileSystem(resource.NewThrottledFS(ctx, fs.Default, rc)),
//	)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
