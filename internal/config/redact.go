package config

import (
	"fmt"
	"net/url"
	"strings"
)

// RedactDSN projects a connection string down to host, port and database
// name, the only parts allowed to leave the process in any log line.
// Credentials never appear in the result, even when parsing fails.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "(unparseable database url)"
	}

	out := u.Host
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		out = fmt.Sprintf("%s/%s", out, db)
	}
	return out
}
