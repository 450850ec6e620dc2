package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialector opens path with foreign keys enforced. ":memory:" and file: URIs are
// passed through with the pragma appended.
func Dialector(path string) gorm.Dialector {
	if path == "" {
		path = "policylens.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sqlite.Open(fmt.Sprintf("%s%s_foreign_keys=on", path, sep))
}

// MemoryDSN names a private in-memory database shared by every connection of one pool.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
