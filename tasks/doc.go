// Package tasks binds a list's tasks to the query store, applies task edits
// optimistically and reduces the cached tasks to what the task screen shows.
//
// Every mutation patches the ["tasks", "byList", listID] slot and invalidates
// that prefix once the repository write settles. A task's completion flag and
// status always change together.
package tasks
