// Package registrar publishes hosted functions to the workspace database
// so SQL can call them through the gateway
package registrar

import (
	"context"
	"strconv"
	"strings"

	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/logger"
	"udfhost/internal/platform/store"
	"udfhost/internal/udf"
)

// Registrar issues EXTERNAL FUNCTION DDL against the workspace database
type Registrar struct {
	db  store.TxRunner
	log logger.Logger
}

// New returns a Registrar over the given store seam
func New(db store.TxRunner, log logger.Logger) *Registrar {
	return &Registrar{db: db, log: log.With().Str("component", "registrar").Logger()}
}

// Register creates one external function per signature pointing at baseURL
// replace controls CREATE OR REPLACE vs plain CREATE; all statements run
// inside one transaction so a half-registered set never survives
func (g *Registrar) Register(ctx context.Context, sigs []udf.Signature, baseURL string, replace bool) error {
	if g == nil || g.db == nil {
		return perr.Unavailablef("registrar: no database configured")
	}
	if len(sigs) == 0 {
		return nil
	}

	err := g.db.Tx(ctx, func(q store.RowQuerier) error {
		for _, sig := range sigs {
			ddl := BuildDDL(sig, baseURL, replace)
			if _, err := store.Exec(ctx, q, ddl); err != nil {
				return perr.FromPostgres(err, "register function "+sig.Name)
			}
			g.log.Debug().Str("function", sig.Name).Msg("registered external function")
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.log.Info().Int("count", len(sigs)).Str("base_url", baseURL).Msg("functions registered")
	return nil
}

// Deregister drops the external functions for the given signatures
// missing functions are ignored
func (g *Registrar) Deregister(ctx context.Context, sigs []udf.Signature) error {
	if g == nil || g.db == nil {
		return perr.Unavailablef("registrar: no database configured")
	}
	return g.db.Tx(ctx, func(q store.RowQuerier) error {
		for _, sig := range sigs {
			ddl := "DROP FUNCTION IF EXISTS " + quoteIdent(sig.Name)
			if _, err := store.Exec(ctx, q, ddl); err != nil {
				return perr.FromPostgres(err, "deregister function "+sig.Name)
			}
		}
		return nil
	})
}

// BuildDDL renders the registration statement for one signature
func BuildDDL(sig udf.Signature, baseURL string, replace bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if replace {
		b.WriteString("OR REPLACE ")
	}
	b.WriteString("EXTERNAL FUNCTION ")
	b.WriteString(quoteIdent(sig.Name))
	b.WriteString("(")
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("arg")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" ")
		b.WriteString(p.SQLType)
		if !p.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(") RETURNS ")
	b.WriteString(sig.Returns.SQLType)
	if !sig.Returns.Nullable {
		b.WriteString(" NOT NULL")
	}
	b.WriteString(" AS REMOTE SERVICE '")
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/invoke/")
	b.WriteString(sig.Name)
	b.WriteString("' FORMAT JSON")
	return b.String()
}

// quoteIdent backtick-quotes a SQL identifier
func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
