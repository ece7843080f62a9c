package config

import (
	"fmt"
	"strings"
)

// DSN returns a go-sql-driver/mysql Data Source Name. If ConnectionString is
// set, it is used directly (with parseTime/loc/tls applied if absent);
// otherwise the DSN is built from the discrete fields.
func (d *DatabaseConfig) DSN() string {
	var dsn string

	if d.ConnectionString != "" {
		dsn = d.ConnectionString
	} else {
		dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		)
	}

	if !strings.Contains(dsn, "parseTime") {
		dsn += sep(dsn) + "parseTime=true"
	}
	if !strings.Contains(dsn, "loc=") {
		dsn += sep(dsn) + "loc=UTC"
	}
	if d.TLSMode != "" && !strings.Contains(dsn, "tls=") {
		dsn += sep(dsn) + "tls=" + d.TLSMode
	}

	return dsn
}

func sep(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}
