package export

import (
	"context"
	"net/url"
	"strings"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

// newDatabase picks the database exporter from the connection string scheme.
func newDatabase(ctx context.Context, def definition.ExportDefinition, opts Options) (Exporter, error) {
	switch scheme := connScheme(def.DBConnectionString); scheme {
	case "mongodb", "mongodb+srv":
		m, err := newMongo(ctx, def, opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "postgres", "postgresql":
		p, err := newPostgres(ctx, def, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, unsupported("database scheme %q", scheme)
	}
}

func connScheme(conn string) string {
	u, err := url.Parse(conn)
	if err != nil {
		if i := strings.Index(conn, "://"); i > 0 {
			return strings.ToLower(conn[:i])
		}
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// redact drops the password from a connection string for logs and errors.
func redact(conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return conn
	}
	return u.Redacted()
}
