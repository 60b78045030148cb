// Package batch drives contact operations row by row. Rows that fail
// validation are skipped with a status message; rows whose API calls fail are
// recorded with a failure status and processing moves on to the next row.
package batch
