// Package keys builds the cache keys used by the list and task views.
package keys

import "github.com/goliatone/go-todo-cache/cache"

const (
	ListsNamespace = "lists"
	TasksNamespace = "tasks"
)

// Lists addresses the full list collection. As a prefix it matches every list view.
func Lists() cache.Key {
	return cache.NewKey(ListsNamespace)
}

// ListSearch addresses the lists whose name matches term.
func ListSearch(term string) cache.Key {
	return Lists().Append("search", term)
}

// ListRecent addresses the newest lists, capped at limit.
func ListRecent(limit int) cache.Key {
	return Lists().Append("recent", limit)
}

// ListDetail addresses a single list.
func ListDetail(id int64) cache.Key {
	return Lists().Append(id)
}

// TasksByList addresses the tasks of one list. As a prefix it matches every
// derived view of that list.
func TasksByList(listID int64) cache.Key {
	return cache.NewKey(TasksNamespace, "byList", listID)
}
