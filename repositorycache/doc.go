// Package repositorycache provides cached decorators for the list and task repositories.
//
// # Overview
//
// CachedLists and CachedTasks wrap a repository.ListRepository and a
// repository.TaskRepository. Reads go through a cache.CacheService; writes are
// delegated to the base repository and then invalidate the reads they affect.
//
// # Basic Usage
//
//	base := sqlstore.NewListStore(db)
//	cacheService, _ := cache.NewCacheService(cache.DefaultConfig())
//	keySerializer := cache.NewDefaultKeySerializer()
//
//	lists := repositorycache.NewLists(base, cacheService, keySerializer)
//	all, err := lists.GetAll(ctx)
//
// # Cached vs Pass-through Operations
//
// ## Cached Operations (Read-only)
//
//   - Lists: GetAll, GetByID, Search, Recent
//   - Tasks: GetByListID
//
// ## Pass-through Operations
//
//   - Lists: Create, Update, Delete
//   - Tasks: Create, Update, Delete, Toggle
//
// # Caching Behavior
//
// Reads follow a read-through pattern:
//
//  1. Check cache for the serialized key
//  2. If cache hit, return cached result
//  3. If cache miss, call base repository
//  4. Store result in cache
//  5. Return result to caller
//
// Keys are the namespace, the method name and the arguments joined with
// cache.KeySeparator, e.g. "lists::Search::milk" or "tasks::GetByListID::7".
//
// A GetByID miss is stored as a missing record when the cache service supports
// it, and reported to callers as a nil list without error.
//
// # Cache Invalidation
//
// Every write attempt invalidates, whether or not the base repository reported
// an error:
//
//   - list writes drop every "lists::" key
//   - list deletes also drop the deleted list's task read
//   - task creates drop the task read of their list
//   - task updates, deletes and toggles drop every "tasks::" key, since they
//     only carry the task id
//
// # Error Handling
//
// Errors from the base repository and the cache service are returned
// unchanged. Failed invalidations are logged and do not fail the write.
package repositorycache
