package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var FS embed.FS

// InitUp returns the schema applied by ledgerctl migrate and the test helpers.
func InitUp() (string, error) {
	b, err := fs.ReadFile(FS, "000001_init.up.sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func InitDown() (string, error) {
	b, err := fs.ReadFile(FS, "000001_init.down.sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
