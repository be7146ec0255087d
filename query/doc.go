// Package query keeps a local cache of query results consistent with the
// repository using a stale-while-revalidate discipline.
//
// A Store holds one slot per cache.Key. Bindings attach to slots:
//
//	store := query.NewStore()
//	b := query.Bind(ctx, store, keys.TasksByList(7), func(ctx context.Context) ([]todo.Task, error) {
//		return repo.GetByListID(ctx, 7)
//	}, query.WithStaleTime(10*time.Second))
//	defer b.Close()
//
//	r := b.Result() // Data, IsLoading, IsRefetching, IsError
//
// Binding to a stale slot starts a background fetch while the cached data stays
// visible. Fetch errors are recorded on the slot without clearing its data.
// Concurrent fetches of one slot share a single call.
//
// Mutations patch slots directly through Store.Update after calling
// Store.Cancel, which makes any fetch already running for the slot discard its
// result when it resolves. Store.Invalidate marks slots stale and refetches the
// ones that are actively bound.
package query
