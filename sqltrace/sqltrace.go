// Package sqltrace traces persistence statements through a trace.Interceptor.
//
// Every statement becomes a span in category "SQL" named by its statement id
// (the last two segments of "namespace.method") and emits one "SQL.Method"
// event carrying the statement kind. Two integrations are provided: a gorm
// plugin (NewPlugin) and a thin *sql.DB wrapper (Wrap).
package sqltrace

import (
	"context"
	"strings"

	"github.com/unkn0wn-root/cachegate/trace"
)

const (
	Category    = "SQL"
	MethodEvent = "SQL.Method"
)

// Statement kinds.
const (
	KindSelect  = "select"
	KindInsert  = "insert"
	KindUpdate  = "update"
	KindDelete  = "delete"
	KindUnknown = "unknown"
)

// KindOf derives the statement kind from the leading SQL verb.
func KindOf(query string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	switch strings.ToLower(strings.TrimRight(verb, "(\n\t")) {
	case "select", "with", "show", "explain", "pragma":
		return KindSelect
	case "insert", "replace":
		return KindInsert
	case "update":
		return KindUpdate
	case "delete":
		return KindDelete
	default:
		return KindUnknown
	}
}

// ShortID keeps the last two dot-separated segments of a statement id, so
// "com.acme.dao.UserMapper.findByEmail" becomes "UserMapper.findByEmail".
func ShortID(id string) string {
	i := strings.LastIndexByte(id, '.')
	if i <= 0 {
		return id
	}
	if j := strings.LastIndexByte(id[:i], '.'); j >= 0 {
		return id[j+1:]
	}
	return id
}

// Operation builds the traced operation for one statement.
func Operation(id, kind string) trace.Operation {
	return trace.Operation{
		Category: Category,
		Name:     ShortID(id),
		Events:   []trace.Event{{Category: MethodEvent, Name: kind}},
	}
}

type statementKey struct{}

// WithStatement names the statements run with ctx. It overrides the
// "<table>.<kind>" name the gorm plugin would derive.
func WithStatement(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, statementKey{}, id)
}

func statementFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(statementKey{}).(string)
	return id, ok && id != ""
}
