package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "pastor@example.com", NormalizeEmail("  Pastor@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestPhoneSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+55 (11) 91234-5678", want: "345678"},
		{in: "912345678", want: "345678"},
		{in: "12345", want: ""},
		{in: "abc", want: ""},
	}

	for _, tt := range tests {
		if got := PhoneSuffix(tt.in); got != tt.want {
			t.Fatalf("PhoneSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasActiveAnnual(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var c Customer
	assert.False(t, c.HasActiveAnnual(now))

	future := now.Add(time.Hour)
	c.AnnualExpiresAt = &future
	assert.True(t, c.HasActiveAnnual(now))

	c.AnnualExpiresAt = &now
	assert.False(t, c.HasActiveAnnual(now), "the expiry instant is already expired")
}

func TestHasActiveMonthly(t *testing.T) {
	for status, want := range map[string]bool{
		MonthlyStatusPaid:     true,
		MonthlyStatusOverdue:  false,
		MonthlyStatusCanceled: false,
		MonthlyStatusNone:     false,
	} {
		c := Customer{MonthlyStatus: status}
		assert.Equal(t, want, c.HasActiveMonthly(), "status %q", status)
	}
}

func TestIsValidPermission(t *testing.T) {
	assert.True(t, IsValidPermission(PermissionAllow))
	assert.True(t, IsValidPermission(PermissionBlock))
	assert.True(t, IsValidPermission(PermissionCanceled))
	assert.False(t, IsValidPermission("vip"))
	assert.False(t, IsValidPermission(""))
}
