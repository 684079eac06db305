// Package sanitize empties application tables, for resetting a staging or
// development database.
package sanitize

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"websiteemas/models"
	"websiteemas/pkg/database"
)

type Options struct {
	// Tables to empty; empty means every application table.
	Tables []string
	DryRun bool
	Reseed bool
}

// Tables returns the application table names in migration order.
func Tables() []string {
	out := []string{}
	for _, m := range models.All() {
		if t, ok := m.(schema.Tabler); ok {
			out = append(out, t.TableName())
		}
	}
	return out
}

// Plan resolves the requested names against the known tables and returns
// the ones present in the database, children first so foreign keys never
// block a delete.
func Plan(db *gorm.DB, requested []string) ([]string, error) {
	known := Tables()
	want := map[string]bool{}
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !contains(known, name) {
			return nil, fmt.Errorf("unknown table %q", name)
		}
		want[name] = true
	}
	var plan []string
	for i := len(known) - 1; i >= 0; i-- {
		t := known[i]
		if len(want) > 0 && !want[t] {
			continue
		}
		if db.Migrator().HasTable(t) {
			plan = append(plan, t)
		}
	}
	return plan, nil
}

// Run empties the planned tables in one transaction and optionally puts the
// default accounts back. It prints what it does to w.
func Run(ctx context.Context, db *gorm.DB, opts Options, logg *logrus.Logger, w io.Writer) error {
	plan, err := Plan(db, opts.Tables)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil
	}
	fmt.Fprintln(w, "Tables considered for deletion:")
	for _, t := range plan {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range plan {
			res := tx.Exec("DELETE FROM ?", clause.Table{Name: t})
			if res.Error != nil {
				return fmt.Errorf("empty %s: %w", t, res.Error)
			}
			logg.WithFields(logrus.Fields{"table": t, "rows": res.RowsAffected}).Info("table emptied")
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Delete completed.")

	if opts.Reseed {
		if err := database.Seed(db.WithContext(ctx), logg); err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
		fmt.Fprintln(w, "Default accounts reseeded.")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
