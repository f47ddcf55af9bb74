// Package classifier maps the columns of an arbitrary table onto the
// financial roles date, open, high, low, close and volume.
package classifier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// Role is one of the six financial column roles.
type Role string

const (
	RoleDate   Role = "date"
	RoleOpen   Role = "open"
	RoleHigh   Role = "high"
	RoleLow    Role = "low"
	RoleClose  Role = "close"
	RoleVolume Role = "volume"
)

// Roles lists every role in classification order.
var Roles = []Role{RoleDate, RoleOpen, RoleHigh, RoleLow, RoleClose, RoleVolume}

var synonyms = map[Role][]string{
	RoleDate:   {"date", "time", "datetime", "timestamp", "dt"},
	RoleOpen:   {"open", "o", "opening"},
	RoleHigh:   {"high", "h", "highest"},
	RoleLow:    {"low", "l", "lowest"},
	RoleClose:  {"close", "c", "closing"},
	RoleVolume: {"volume", "vol", "v"},
}

// FinancialColumns records which source column fills each role. A nil field
// means the role is unassigned.
type FinancialColumns struct {
	Date   *string `json:"date,omitempty"`
	Open   *string `json:"open,omitempty"`
	High   *string `json:"high,omitempty"`
	Low    *string `json:"low,omitempty"`
	Close  *string `json:"close,omitempty"`
	Volume *string `json:"volume,omitempty"`
}

func (fc *FinancialColumns) slot(r Role) **string {
	switch r {
	case RoleDate:
		return &fc.Date
	case RoleOpen:
		return &fc.Open
	case RoleHigh:
		return &fc.High
	case RoleLow:
		return &fc.Low
	case RoleClose:
		return &fc.Close
	case RoleVolume:
		return &fc.Volume
	}
	return nil
}

// Get returns the column assigned to r.
func (fc FinancialColumns) Get(r Role) (string, bool) {
	p := fc.slot(r)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

func (fc *FinancialColumns) set(r Role, name string) {
	if p := fc.slot(r); p != nil {
		n := name
		*p = &n
	}
}

// Complete reports whether all of open, high, low, close and volume are set.
func (fc FinancialColumns) Complete() bool {
	for _, r := range Roles[1:] {
		if _, ok := fc.Get(r); !ok {
			return false
		}
	}
	return true
}

// Mapping returns the assigned roles keyed by role.
func (fc FinancialColumns) Mapping() map[Role]string {
	out := make(map[Role]string, len(Roles))
	for _, r := range Roles {
		if name, ok := fc.Get(r); ok {
			out[r] = name
		}
	}
	return out
}

// Missing lists the unassigned roles in classification order.
func (fc FinancialColumns) Missing() []Role {
	var out []Role
	for _, r := range Roles {
		if _, ok := fc.Get(r); !ok {
			out = append(out, r)
		}
	}
	return out
}

// ClassifyByHeader assigns roles from column names. Each column takes the
// first role, in date, open, high, low, close, volume order, whose slot is
// still empty and one of whose synonyms it contains.
func ClassifyByHeader(names []string) FinancialColumns {
	var fc FinancialColumns
	lower := cases.Lower(language.Und)
	for _, name := range names {
		n := lower.String(name)
		for _, r := range Roles {
			if _, taken := fc.Get(r); taken {
				continue
			}
			if containsAny(n, synonyms[r]) {
				fc.set(r, name)
				break
			}
		}
	}
	return fc
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Heuristic is a column classification strategy.
type Heuristic interface {
	Classify(t *table.Table) FinancialColumns
}

// HeaderHeuristic classifies by column name.
type HeaderHeuristic struct{}

func (HeaderHeuristic) Classify(t *table.Table) FinancialColumns {
	if t == nil {
		return FinancialColumns{}
	}
	return ClassifyByHeader(t.Names())
}

// Classify picks the header or statistical heuristic.
func Classify(t *table.Table, hasHeader bool) FinancialColumns {
	var h Heuristic = DefaultStatisticalHeuristic()
	if hasHeader {
		h = HeaderHeuristic{}
	}
	return h.Classify(t)
}
