package classifier

import (
	"fmt"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// Canonicalize renames every mapped column to its role name. Unmapped
// columns keep their names and position.
func Canonicalize(t *table.Table, fc FinancialColumns) (*table.Table, error) {
	rename := make(map[string]string, len(Roles))
	for r, name := range fc.Mapping() {
		if !t.Has(name) {
			return nil, fmt.Errorf("classifier: %s column %q: %w", r, name, table.ErrColumnNotFound)
		}
		rename[name] = string(r)
	}

	cols := t.Columns()
	for i, c := range cols {
		if to, ok := rename[c.Name()]; ok {
			cols[i] = c.Rename(to)
		}
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("classifier: canonicalize: %w", err)
	}
	return out, nil
}
