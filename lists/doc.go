// Package lists exposes the list collection as cached, optimistically mutated
// views.
//
// Reads are bound to query slots:
//
//	["lists"]                    all lists, fresh for 10s
//	["lists", "search", term]    lists matching term, fresh for 5s
//	["lists", "recent", limit]   newest lists, fresh for 30s
//
// Create, Rename and Delete patch the ["lists"] slot before the repository is
// called and invalidate every ["lists", ...] slot once the write settles.
package lists
