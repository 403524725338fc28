// Package models defines the data structures of the forumjudge
// evaluation pipeline.
package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDKey renders a SurrealDB record ID as "table:id" for logs and
// error messages. Storage always references content rows by the record
// ID itself, never by this string form.
func RecordIDKey(id surrealmodels.RecordID) string {
	return fmt.Sprintf("%s:%v", id.Table, id.ID)
}
