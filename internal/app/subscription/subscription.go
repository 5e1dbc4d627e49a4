// Package subscription implements the premium gate: subscription expiry
// checks, per-feature paywall reasons, feature-flag merging, and the
// single-use activation token state machine. Premium is granted only through
// server-verified token redemption.
package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/metrics"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

// TokenValidity is how long a minted activation token stays redeemable.
const TokenValidity = 48 * time.Hour

// Service manages subscriptions and activation tokens.
type Service struct {
	db *sqlite.DB
}

// NewService creates a subscription service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// FeatureDecision is the per-session premium decision, computed once on
// session load and passed down instead of being re-derived in each view.
type FeatureDecision struct {
	IsPremium     bool                  `json:"is_premium"`
	Flags         map[string]bool       `json:"feature_flags"`
	PaywallReason *domain.PaywallReason `json:"paywall_reason"`
}

// Decide evaluates the user's premium status and merged feature flags at a
// point in time. Expiry is time-dependent, so this is recomputed on every
// session load, never cached without a freshness check.
func (s *Service) Decide(user *domain.User, now time.Time) (FeatureDecision, error) {
	settings, err := s.db.GetSettings(user.ID)
	if err != nil {
		return FeatureDecision{}, fmt.Errorf("load settings: %w", err)
	}

	decision := FeatureDecision{
		IsPremium: user.IsPremium(now),
		Flags:     domain.MergeFeatureFlags(settings.FeatureFlags),
	}
	if !decision.IsPremium {
		decision.PaywallReason = domain.PremiumRequired("premium_v2")
	}
	return decision, nil
}

// PaywallReason returns nil when the user is premium, else the structured
// reason for the named feature.
func PaywallReason(user *domain.User, now time.Time, feature string) *domain.PaywallReason {
	if user.IsPremium(now) {
		return nil
	}
	return domain.PremiumRequired(feature)
}

// MintToken creates a single-use activation token bound to a user, valid
// for TokenValidity from now. Source labels where the mint came from
// ("user", "stripe") for metrics only.
func (s *Service) MintToken(userID int64, plan, source string, now time.Time) (domain.PremiumToken, error) {
	expires := now.Add(TokenValidity)
	token := domain.PremiumToken{
		Token:            strings.ReplaceAll(uuid.NewString(), "-", ""),
		Plan:             plan,
		CreatedForUserID: &userID,
		ExpiresAt:        &expires,
		CreatedAt:        now,
	}
	if err := s.db.InsertToken(token); err != nil {
		return domain.PremiumToken{}, fmt.Errorf("insert token: %w", err)
	}
	metrics.TokensMinted.WithLabelValues(source).Inc()
	return token, nil
}

// Redeem consumes an activation token for a user and grants premium for
// exactly one year from redemption time.
//
// State machine: Unredeemed --redeem(validUser)--> Redeemed. Redeemed is
// terminal. Redeeming an expired, consumed, or wrong-owner token fails with
// a distinct error and leaves the subscription untouched.
func (s *Service) Redeem(tokenValue string, userID int64, now time.Time) (*domain.User, error) {
	token, err := s.db.GetToken(tokenValue)
	if err != nil {
		metrics.TokensRedeemed.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if token.CreatedForUserID != nil && *token.CreatedForUserID != userID {
		metrics.TokensRedeemed.WithLabelValues("wrong_owner").Inc()
		return nil, domain.ErrTokenWrongOwner
	}
	if token.Redeemed() {
		metrics.TokensRedeemed.WithLabelValues("already_redeemed").Inc()
		return nil, domain.ErrTokenRedeemed
	}
	if token.Expired(now) {
		metrics.TokensRedeemed.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	}

	// Consume first: the guarded UPDATE is what makes a second redeem lose.
	if err := s.db.MarkTokenRedeemed(tokenValue, userID, now); err != nil {
		metrics.TokensRedeemed.WithLabelValues("already_redeemed").Inc()
		return nil, err
	}

	endsAt := now.AddDate(1, 0, 0)
	if err := s.db.UpdateSubscription(userID, domain.TierPremium, &endsAt); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}

	metrics.TokensRedeemed.WithLabelValues("ok").Inc()
	return s.db.GetUser(userID)
}
