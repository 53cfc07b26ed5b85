// Package cache provides a small thread-safe cache with soft-limit
// eviction of the least recently used entries.
//
//	c := cache.New[string, []byte](64)
//	blob, err := c.GetOrLoad("shaders/shader.vert", load)
package cache
