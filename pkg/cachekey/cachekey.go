// Package cachekey builds the cache key namespace shared by the resource
// services and the invalidation router. Keys are plain strings constructed
// so that a prefix scan reliably identifies every key belonging to a
// resource family.
package cachekey

import (
	"sort"
	"strings"

	"github.com/jisc-platform/go-jisc/pkg/types"
)

// Fixed-resource keys for the static lookup lists.
const (
	Sports     = "sports"
	Athletics  = "athletics"
	Packages   = "packages"
	StaticData = "static_data"
)

// ListPrefix identifies every cached athlete-list variant. The set of filter
// permutations in use is not statically enumerable, so list invalidation is
// a sweep over this prefix.
const ListPrefix = "athletes_list"

const (
	segmentSep = "::"
	pairSep    = "|"
	kvSep      = ":"
)

// Athletic keys a single athletic association.
func Athletic(athleticID string) string {
	return "athletic" + kvSep + athleticID
}

// UserProfile keys a user's profile record.
func UserProfile(userID string) string {
	return "user_profile" + kvSep + userID
}

// UserRole keys a user's resolved role.
func UserRole(userID string) string {
	return "user_role" + kvSep + userID
}

// Athlete keys a single athlete aggregate.
func Athlete(athleteID string) string {
	return "athlete" + kvSep + athleteID
}

// AthleteByUser keys the user-id to athlete mapping.
func AthleteByUser(userID string) string {
	return "athlete_by_user" + kvSep + userID
}

// AthleteSports keys the sports joined into an athlete aggregate.
func AthleteSports(athleteID string) string {
	return "athlete_sports" + kvSep + athleteID
}

// AthletePackages keys the packages joined into an athlete aggregate.
func AthletePackages(athleteID string) string {
	return "athlete_packages" + kvSep + athleteID
}

// AthleteList keys one filtered list variant. The caller's authorization
// scope is part of the key so two callers with different roles never share
// a cached list.
func AthleteList(auth types.AuthContext, filters types.AthleteFilters) string {
	parts := []string{ListPrefix, scopeSegment(auth)}
	if sig := Signature(filterPairs(filters)); sig != "" {
		parts = append(parts, sig)
	}
	return strings.Join(parts, segmentSep)
}

// Signature canonicalizes a filter set into a stable suffix: entries with
// empty values are dropped, the rest are sorted by field name and joined as
// key:value pairs. Two logically identical filter sets always produce the
// same signature regardless of construction order.
func Signature(pairs map[string]string) string {
	fields := make([]string, 0, len(pairs))
	for field, value := range pairs {
		if value == "" {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	joined := make([]string, 0, len(fields))
	for _, field := range fields {
		joined = append(joined, field+kvSep+pairs[field])
	}
	return strings.Join(joined, pairSep)
}

func scopeSegment(auth types.AuthContext) string {
	scope := "role" + kvSep + string(auth.Role)
	if auth.Role == types.RoleAthletic && auth.AthleticID != "" {
		scope += pairSep + "athletic" + kvSep + auth.AthleticID
	}
	return scope
}

func filterPairs(f types.AthleteFilters) map[string]string {
	pairs := map[string]string{
		"search":   f.SearchTerm,
		"athletic": f.AthleticID,
		"status":   f.Status,
		"sport":    f.SportID,
	}
	if f.WhatsAppSent != nil {
		if *f.WhatsAppSent {
			pairs["whatsapp"] = "true"
		} else {
			pairs["whatsapp"] = "false"
		}
	}
	return pairs
}
