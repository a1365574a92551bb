package domain

import (
	"fmt"
	"strings"
	"time"
)

// BillingCycle is the renewal period of a subscription package.
type BillingCycle string

const (
	BillingMonthly   BillingCycle = "monthly"
	BillingQuarterly BillingCycle = "quarterly"
	BillingYearly    BillingCycle = "yearly"
)

// Period returns the subscription length for the cycle.
func (b BillingCycle) Period() time.Duration {
	switch b {
	case BillingQuarterly:
		return 90 * 24 * time.Hour
	case BillingYearly:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Order note keys carrying the purchase intent through the gateway.
const (
	NoteUserID       = "user_id"
	NotePackageID    = "package_id"
	NoteBillingCycle = "billing_cycle"
)

// Receipt builds the deterministic idempotency key for a purchase intent.
// The same user, package and cycle always yield the same receipt.
func Receipt(userID, packageID string, cycle BillingCycle) string {
	return fmt.Sprintf("pkg_%s_%s_%s",
		strings.ToLower(packageID), strings.ToLower(string(cycle)), userID)
}

// Subscription is a package activated by a verified order.
type Subscription struct {
	OrderID      string       `json:"order_id" bson:"_id"`
	UserID       string       `json:"user_id" bson:"user_id"`
	PackageID    string       `json:"package_id" bson:"package_id"`
	BillingCycle BillingCycle `json:"billing_cycle" bson:"billing_cycle"`
	ActivatedAt  time.Time    `json:"activated_at" bson:"activated_at"`
	ExpiresAt    time.Time    `json:"expires_at" bson:"expires_at"`
}

// SubscriptionFor builds the subscription a verified order activates. It
// returns false when the order does not carry a package.
func SubscriptionFor(o *Order, now time.Time) (*Subscription, bool) {
	pkg := o.Notes[NotePackageID]
	if pkg == "" {
		return nil, false
	}
	cycle := BillingCycle(o.Notes[NoteBillingCycle])
	if cycle == "" {
		cycle = BillingMonthly
	}
	return &Subscription{
		OrderID:      o.ID,
		UserID:       o.UserID,
		PackageID:    pkg,
		BillingCycle: cycle,
		ActivatedAt:  now,
		ExpiresAt:    now.Add(cycle.Period()),
	}, true
}
