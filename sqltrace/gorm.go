package sqltrace

import (
	"errors"

	"gorm.io/gorm"

	"github.com/unkn0wn-root/cachegate/trace"
)

const pendingKey = "sqltrace:pending"

// Plugin is a gorm.Plugin that opens a span before each gorm processor runs
// and completes it after. The gorm error, if any, is left on db.Error.
type Plugin struct {
	in *trace.Interceptor
}

var _ gorm.Plugin = (*Plugin)(nil)

func NewPlugin(in *trace.Interceptor) *Plugin { return &Plugin{in: in} }

func (p *Plugin) Name() string { return "sqltrace" }

func (p *Plugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	for _, r := range []struct {
		name   string
		kind   string // empty: derive from the SQL text
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", KindInsert, cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", KindSelect, cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", KindUpdate, cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", KindDelete, cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", KindSelect, cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	} {
		if err := r.before("sqltrace:before_"+r.name, p.before(r.kind)); err != nil {
			return err
		}
		if err := r.after("sqltrace:after_"+r.name, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) before(kind string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if !p.in.Enabled() || db.Statement == nil {
			return
		}
		stmt := db.Statement
		k := kind
		if k == "" {
			k = KindOf(stmt.SQL.String())
		}
		id, ok := statementFrom(stmt.Context)
		if !ok {
			table := stmt.Table
			if table == "" {
				table = "raw"
			}
			id = table + "." + k
		}
		ctx, pending := p.in.Start(stmt.Context, Operation(id, k))
		if pending == nil {
			return
		}
		stmt.Context = ctx
		db.InstanceSet(pendingKey, pending)
	}
}

func (p *Plugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(pendingKey)
	if !ok {
		return
	}
	pending, _ := v.(*trace.Pending)
	err := db.Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	pending.End(err)
}
