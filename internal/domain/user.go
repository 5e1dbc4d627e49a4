package domain

import "time"

// SubscriptionTier is either free or premium.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// User is a registered account.
type User struct {
	ID                 int64            `json:"id"`
	Username           string           `json:"username"`
	AccessCode         string           `json:"access_code,omitempty"`
	Tier               SubscriptionTier `json:"tier"`
	SubscriptionEndsAt *time.Time       `json:"subscription_ends_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// IsPremium evaluates the subscription at a point in time. Expiry is
// time-dependent, so callers must pass a fresh now on every check.
func (u User) IsPremium(now time.Time) bool {
	if u.Tier != TierPremium {
		return false
	}
	return u.SubscriptionEndsAt == nil || u.SubscriptionEndsAt.After(now)
}

// PremiumToken is a single-use activation token. Immutable once redeemed.
type PremiumToken struct {
	Token            string     `json:"token"`
	Plan             string     `json:"plan"`
	CreatedForUserID *int64     `json:"created_for_user_id,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RedeemedAt       *time.Time `json:"redeemed_at,omitempty"`
	RedeemedByUserID *int64     `json:"redeemed_by_user_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Redeemed reports whether the token has been consumed.
func (t PremiumToken) Redeemed() bool {
	return t.RedeemedAt != nil
}

// Expired reports whether the token's deadline has passed.
func (t PremiumToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// Settings is the per-user settings blob, mirrored to the device cache.
type Settings struct {
	Theme            string          `json:"theme,omitempty"`
	FocusPhrase      string          `json:"focus_phrase,omitempty"`
	CustomCategories []string        `json:"custom_categories,omitempty"`
	FeatureFlags     map[string]bool `json:"feature_flags,omitempty"`
}

// DefaultFeatureFlags are the system defaults. Stored values override them;
// unknown stored keys pass through untouched.
func DefaultFeatureFlags() map[string]bool {
	return map[string]bool{
		"premiumV2":       false,
		"mizanStrictMode": false,
	}
}

// MergeFeatureFlags overlays stored flags onto the system defaults.
func MergeFeatureFlags(stored map[string]bool) map[string]bool {
	merged := DefaultFeatureFlags()
	for k, v := range stored {
		merged[k] = v
	}
	return merged
}

// PaywallReason explains why a premium-gated view is hidden.
type PaywallReason struct {
	Code    string `json:"code"`
	Feature string `json:"feature"`
}

// PremiumRequired builds the standard paywall reason for a feature.
func PremiumRequired(feature string) *PaywallReason {
	return &PaywallReason{Code: "premium_required", Feature: feature}
}
