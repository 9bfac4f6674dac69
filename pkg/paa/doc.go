// Package paa implements the budget-bounded breadth-first expansion of
// Google "People Also Ask" question graphs.
//
// The question graph is never held in memory as a whole: each node's
// children are only revealed by issuing a search request for that node
// through an Executor, and the traversal is cut off by three per-root
// budgets (depth, unique questions, requests). The package performs no
// I/O itself; the Executor owns authentication, retries, and response
// parsing.
package paa
