// Package arena implements the context that owns every byte produced by a
// decode. Storage is carved from large chunks by a bump pointer and released
// in bulk by Reset or Destroy; there is no per-view free.
//
// Lifetime rules:
//
//   - a View returned from a Context is valid until the next Reset or Destroy
//     of that Context, never longer;
//   - Reset invalidates every outstanding View but leaves the Context usable;
//   - Destroy releases all chunks; calling it on a nil *Context is a no-op.
//
// A Context is not safe for concurrent use. Use one per connection or worker.
package arena
