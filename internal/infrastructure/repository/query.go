package repository

import (
	"strings"

	"gorm.io/gorm"

	apperrors "keymint/internal/shared/errors"
	"keymint/internal/shared/query"
)

// applyFilter compiles a query.Filter onto a gorm query: predicates,
// include/exclude ID shorthands and the cross-column search. Ordering and
// pagination are applied separately so Count can reuse the same base.
func applyFilter(tx *gorm.DB, f *query.Filter, searchColumns []string) (*gorm.DB, error) {
	if f == nil {
		return tx, nil
	}

	for _, p := range f.Predicates {
		cond, args, err := p.SQL()
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		tx = tx.Where(cond, args...)
	}

	if len(f.Include) > 0 {
		tx = tx.Where("id IN ?", f.Include)
	}
	if len(f.Exclude) > 0 {
		tx = tx.Where("id NOT IN ?", f.Exclude)
	}

	if f.Search != "" && len(searchColumns) > 0 {
		conds := make([]string, 0, len(searchColumns))
		args := make([]any, 0, len(searchColumns))
		for _, col := range searchColumns {
			conds = append(conds, col+" LIKE ?")
			args = append(args, "%"+f.Search+"%")
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	return tx, nil
}

// applyPagination adds ordering and the page window.
func applyPagination(tx *gorm.DB, f *query.Filter, allowed map[string]bool, primaryKey string) *gorm.DB {
	if f == nil {
		return tx.Order(primaryKey + " DESC")
	}

	tx = tx.Order(f.OrderClause(allowed, primaryKey))
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit).Offset(f.Offset())
	}
	return tx
}

func filterFingerprint(f *query.Filter) string {
	if f == nil {
		return "all"
	}
	return f.Fingerprint()
}
