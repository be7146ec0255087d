// Package cache defines the vocabulary shared by the query store and the
// repository decorators: tuple keys, key serialization and the read-through
// CacheService contract.
//
// # Keys
//
// A Key is an ordered tuple of scalars that addresses one cache slot:
//
//	cache.NewKey("tasks", "byList", 7)
//	cache.NewKey("lists", "search", "milk")
//
// Invalidation works on prefixes. Key{"lists"} matches every list slot,
// including search and recent views.
//
// # Serialization
//
// Slots and backend entries are stored under strings produced by a KeySerializer.
// The default serializer joins the namespace and the serialized arguments with
// KeySeparator:
//
//	serializer := cache.NewDefaultKeySerializer()
//	serializer.SerializeKey("lists", "search", "milk") // lists::search::milk
//
// # Read-through caching
//
// CacheService is implemented by the sturdyc adapter in internal/cacheinfra and
// is used through the generic GetOrFetch helper:
//
//	list, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (todo.List, error) {
//		return repo.GetByID(ctx, id)
//	})
//
// Fetch functions return ErrNotFound for missing records; backends configured
// with missing record storage remember the miss.
package cache
