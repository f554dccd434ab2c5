// Package results stores evaluation runs and their score distributions in a
// local SQLite database so past evaluations stay queryable.
package results
