// Package athletelist holds the pure derivation helpers applied to an
// already-fetched athlete list before render: predicate filtering,
// multi-field sorting and WhatsApp outreach templating. Nothing here
// performs I/O or touches the cache, and inputs are never mutated.
package athletelist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jisc-platform/go-jisc/pkg/types"
)

// SortField selects the ordering key for SortAthletes.
type SortField string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "created_at"
	SortByStatus    SortField = "status"
	SortByAthletic  SortField = "athletic"
)

// SortOrder selects ascending or descending output.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ApplyFilters returns the subset of list matching every configured filter.
// Empty and "all" values are no-ops. The search term matches
// case-insensitively against name and email, and digit-wise against phone.
func ApplyFilters(list []types.Athlete, filters types.AthleteFilters) []types.Athlete {
	out := make([]types.Athlete, 0, len(list))
	for _, athlete := range list {
		if matches(&athlete, filters) {
			out = append(out, athlete)
		}
	}
	return out
}

func matches(a *types.Athlete, f types.AthleteFilters) bool {
	if term := strings.TrimSpace(f.SearchTerm); term != "" && !matchesSearch(a, term) {
		return false
	}
	if f.AthleticID != "" && f.AthleticID != "all" && a.AthleticID != f.AthleticID {
		return false
	}
	if f.Status != "" && f.Status != "all" && string(a.Status) != f.Status {
		return false
	}
	if f.SportID != "" && f.SportID != "all" && !a.HasSport(f.SportID) {
		return false
	}
	if f.WhatsAppSent != nil && a.WhatsAppSent != *f.WhatsAppSent {
		return false
	}
	return true
}

func matchesSearch(a *types.Athlete, term string) bool {
	lowered := strings.ToLower(term)
	if strings.Contains(strings.ToLower(a.User.Name), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(a.User.Email), lowered) {
		return true
	}
	digits := DigitsOnly(term)
	return digits != "" && strings.Contains(DigitsOnly(a.User.Phone), digits)
}

// SortAthletes returns a new slice sorted by the given field and order. The
// input is left untouched. Name and athletic ordering is case-insensitive;
// ties keep their relative input order (stable sort). An unknown field
// sorts by name.
func SortAthletes(list []types.Athlete, field SortField, order SortOrder) []types.Athlete {
	out := make([]types.Athlete, len(list))
	copy(out, list)

	less := lessFunc(field)
	sort.SliceStable(out, func(i, j int) bool {
		if order == Desc {
			return less(&out[j], &out[i])
		}
		return less(&out[i], &out[j])
	})
	return out
}

func lessFunc(field SortField) func(a, b *types.Athlete) bool {
	switch field {
	case SortByCreatedAt:
		return func(a, b *types.Athlete) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case SortByStatus:
		return func(a, b *types.Athlete) bool {
			return a.Status < b.Status
		}
	case SortByAthletic:
		return func(a, b *types.Athlete) bool {
			return strings.ToLower(a.Athletic.Name) < strings.ToLower(b.Athletic.Name)
		}
	default:
		return func(a, b *types.Athlete) bool {
			return strings.ToLower(a.User.Name) < strings.ToLower(b.User.Name)
		}
	}
}

// DigitsOnly strips a phone number down to its digits so search terms match
// regardless of formatting.
func DigitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppMessage renders the outreach text the registration team sends an
// athlete, varying the closing line with the review status.
func WhatsAppMessage(a *types.Athlete) string {
	var followUp string
	switch a.Status {
	case types.StatusApproved:
		followUp = "Sua inscrição foi aprovada! Nos vemos nos jogos."
	case types.StatusRejected:
		followUp = "Sua inscrição precisa de ajustes. Pode verificar seus documentos na plataforma?"
	default:
		followUp = "Estamos analisando sua inscrição e retornamos em breve."
	}
	return fmt.Sprintf("Olá, %s! Aqui é a organização do JISC, da atlética %s. %s",
		a.User.Name, a.Athletic.Name, followUp)
}
