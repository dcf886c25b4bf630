package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM kv_entries WHERE key = ?":             "SELECT",
		"INSERT INTO kv_locks (key,token) VALUES (?,?)":      "INSERT",
		"UPDATE `kv_entries` SET value=? WHERE version = ?":  "UPDATE",
		"WITH x AS (SELECT 1) DELETE FROM kv_locks":          "SELECT",
		"":                                                   "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "kv_entries", tableFromSQL("SELECT * FROM kv_entries WHERE key = ?"))
	assert.Equal(t, "kv_locks", tableFromSQL(`INSERT INTO "kv_locks" ("key") VALUES (?)`))
	assert.Equal(t, "kv_entries", tableFromSQL("UPDATE `kv_entries` SET value=?"))
	assert.Equal(t, "", tableFromSQL("PRAGMA foreign_keys"))
}
