// Package sanitize holds the database maintenance behind cmd_sanitize:
// pruning dead refresh tokens and wiping application tables.
package sanitize

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"vint/models"
)

// DefaultTables lists the application tables in dependency order.
var DefaultTables = []string{"tombstones", "external_transactions", "transactions", "refresh_tokens", "users"}

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Options struct {
	DryRun bool
	Yes    bool
	Tables []string
}

// ParseTables splits a comma-separated list and drops names that are not
// plain identifiers. Rejected names are returned separately.
func ParseTables(list string) (valid, rejected []string) {
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			rejected = append(rejected, p)
			continue
		}
		valid = append(valid, p)
	}
	return valid, rejected
}

// PruneTokens removes refresh tokens that are revoked or expired at now and
// returns how many matched. Nothing is deleted when dryRun is set.
func PruneTokens(ctx context.Context, w io.Writer, db *gorm.DB, now time.Time, dryRun bool) (int64, error) {
	q := db.WithContext(ctx).Model(&models.RefreshToken{}).Where("revoked = ? OR expires_at < ?", true, now)
	if dryRun {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return 0, fmt.Errorf("count refresh tokens: %w", err)
		}
		fmt.Fprintf(w, "%d refresh tokens would be pruned (dry-run)\n", n)
		return n, nil
	}
	res := q.Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune refresh tokens: %w", res.Error)
	}
	fmt.Fprintf(w, "pruned %d refresh tokens\n", res.RowsAffected)
	return res.RowsAffected, nil
}

// Truncate empties the requested tables that exist. It only reports what it
// would do unless DryRun is off and Yes is set. It returns the tables wiped.
func Truncate(ctx context.Context, w io.Writer, db *gorm.DB, opts Options) ([]string, error) {
	existing := make([]string, 0, len(opts.Tables))
	for _, t := range opts.Tables {
		if !nameRe.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
		if db.Migrator().HasTable(t) {
			existing = append(existing, t)
		} else {
			fmt.Fprintf(w, "table %s not found, skipping\n", t)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil, nil
	}

	fmt.Fprintln(w, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use -dry-run=false -yes to execute.")
		return nil, nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass -yes to confirm execution. Aborting.")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	quoted := make([]string, 0, len(existing))
	for _, t := range existing {
		quoted = append(quoted, fmt.Sprintf("%q", t))
	}
	gdb := db.WithContext(ctx)
	if gdb.Dialector.Name() == "postgres" {
		stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
		if err := gdb.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("truncate failed: %w", err)
		}
	} else {
		// sqlite has no TRUNCATE
		err := gdb.Transaction(func(tx *gorm.DB) error {
			for _, q := range quoted {
				if err := tx.Exec("DELETE FROM " + q).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("truncate failed: %w", err)
		}
	}
	fmt.Fprintln(w, "Truncate completed.")
	return existing, nil
}
