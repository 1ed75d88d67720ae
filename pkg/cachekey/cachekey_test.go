package cachekey_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jisc-platform/go-jisc/pkg/cachekey"
	"github.com/jisc-platform/go-jisc/pkg/types"
)

func TestSignature(t *testing.T) {
	t.Run("is order independent", func(t *testing.T) {
		a := map[string]string{"status": "approved", "athletic": "all"}
		b := map[string]string{"athletic": "all", "status": "approved"}
		assert.Equal(t, cachekey.Signature(a), cachekey.Signature(b))
	})

	t.Run("drops empty values", func(t *testing.T) {
		assert.Equal(t,
			cachekey.Signature(map[string]string{"status": "sent"}),
			cachekey.Signature(map[string]string{"status": "sent", "search": "", "sport": ""}))
	})

	t.Run("sorts fields by name", func(t *testing.T) {
		sig := cachekey.Signature(map[string]string{"status": "sent", "athletic": "at1"})
		assert.Equal(t, "athletic:at1|status:sent", sig)
	})

	t.Run("empty set yields empty signature", func(t *testing.T) {
		assert.Empty(t, cachekey.Signature(nil))
	})
}

func TestAthleteList(t *testing.T) {
	admin := types.AuthContext{UserID: "u1", Role: types.RoleAdmin}
	athletic := types.AuthContext{UserID: "u2", Role: types.RoleAthletic, AthleticID: "at1"}
	filters := types.AthleteFilters{Status: "approved", AthleticID: "all"}

	t.Run("same caller and filters yield identical keys", func(t *testing.T) {
		again := types.AthleteFilters{AthleticID: "all", Status: "approved"}
		assert.Equal(t, cachekey.AthleteList(admin, filters), cachekey.AthleteList(admin, again))
	})

	t.Run("different roles never share a key", func(t *testing.T) {
		assert.NotEqual(t, cachekey.AthleteList(admin, filters), cachekey.AthleteList(athletic, filters))
	})

	t.Run("different athletics never share a key", func(t *testing.T) {
		other := types.AuthContext{UserID: "u3", Role: types.RoleAthletic, AthleticID: "at2"}
		assert.NotEqual(t, cachekey.AthleteList(athletic, filters), cachekey.AthleteList(other, filters))
	})

	t.Run("different filters yield different keys", func(t *testing.T) {
		rejected := types.AthleteFilters{Status: "rejected"}
		assert.NotEqual(t, cachekey.AthleteList(admin, filters), cachekey.AthleteList(admin, rejected))
	})

	t.Run("whatsapp tri-state is part of the key", func(t *testing.T) {
		sent := true
		notSent := false
		assert.NotEqual(t,
			cachekey.AthleteList(admin, types.AthleteFilters{WhatsAppSent: &sent}),
			cachekey.AthleteList(admin, types.AthleteFilters{WhatsAppSent: &notSent}))
		assert.NotEqual(t,
			cachekey.AthleteList(admin, types.AthleteFilters{WhatsAppSent: &sent}),
			cachekey.AthleteList(admin, types.AthleteFilters{}))
	})

	t.Run("every list key carries the sweep prefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(cachekey.AthleteList(admin, filters), cachekey.ListPrefix))
		assert.True(t, strings.HasPrefix(cachekey.AthleteList(athletic, types.AthleteFilters{}), cachekey.ListPrefix))
	})
}

func TestEntityKeys(t *testing.T) {
	// Distinct resources must never collide on the same id.
	keys := []string{
		cachekey.UserProfile("x"),
		cachekey.UserRole("x"),
		cachekey.Athlete("x"),
		cachekey.AthleteByUser("x"),
		cachekey.AthleteSports("x"),
		cachekey.AthletePackages("x"),
		cachekey.Athletic("x"),
	}
	seen := make(map[string]bool)
	for _, key := range keys {
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}

	// Entity keys must not be caught by the list sweep.
	for _, key := range keys {
		assert.False(t, strings.HasPrefix(key, cachekey.ListPrefix), "key %q collides with the list prefix", key)
	}
}
