package regeneration

import (
	"fmt"
	"strings"
)

// Plan is a subscription level. It gates how many manual regenerations a user
// may consume per plan type and billing period.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// NormalizePlan maps a raw plan string to a known Plan, defaulting to free.
func NormalizePlan(raw string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanPro:
		return PlanPro
	case PlanPremium:
		return PlanPremium
	default:
		return PlanFree
	}
}

// monthly manual regeneration quotas per plan type
var planQuotas = map[Plan]int{
	PlanFree:    2,
	PlanPro:     50,
	PlanPremium: 200,
}

// Quota returns the monthly manual regeneration allowance for a plan.
func Quota(plan Plan) int {
	if q, ok := planQuotas[plan]; ok {
		return q
	}
	return planQuotas[PlanFree]
}

// Reason classifies why a regeneration is being requested. System-initiated
// reasons are unmetered; only manual requests consume quota.
type Reason string

const (
	ReasonTierUpgrade         Reason = "tier_upgrade"
	ReasonCriticalFieldUpdate Reason = "critical_field_update"
	ReasonManualRequest       Reason = "manual_request"
)

// Valid reports whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case ReasonTierUpgrade, ReasonCriticalFieldUpdate, ReasonManualRequest:
		return true
	default:
		return false
	}
}

// Metered reports whether the reason counts against the monthly quota.
func (r Reason) Metered() bool {
	return r == ReasonManualRequest
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Metered   bool   `json:"metered"`
	Used      int    `json:"used"`
	Quota     int    `json:"quota"`
	Remaining int    `json:"remaining"`
	DenyCode  string `json:"deny_code,omitempty"`
}

const (
	DenyInvalidReason = "invalid_reason"
	DenyQuotaExceeded = "quota_exceeded"
)

// Governor decides whether a regeneration may proceed. It is pure: it reads
// nothing and writes nothing, the caller supplies current usage and records
// consumption afterwards.
type Governor struct{}

func NewGovernor() *Governor {
	return &Governor{}
}

// Authorize evaluates one regeneration request. System reasons (tier upgrade,
// critical field update) are always allowed and never consume quota. Manual
// requests are allowed while used < quota for the caller's plan.
func (g *Governor) Authorize(plan Plan, reason Reason, used int) Decision {
	quota := Quota(plan)

	if !reason.Valid() {
		return Decision{
			Allowed:   false,
			Used:      used,
			Quota:     quota,
			Remaining: remaining(quota, used),
			DenyCode:  DenyInvalidReason,
		}
	}

	if !reason.Metered() {
		return Decision{
			Allowed:   true,
			Metered:   false,
			Used:      used,
			Quota:     quota,
			Remaining: remaining(quota, used),
		}
	}

	if used >= quota {
		return Decision{
			Allowed:   false,
			Metered:   true,
			Used:      used,
			Quota:     quota,
			Remaining: 0,
			DenyCode:  DenyQuotaExceeded,
		}
	}

	return Decision{
		Allowed:   true,
		Metered:   true,
		Used:      used,
		Quota:     quota,
		Remaining: remaining(quota, used),
	}
}

func remaining(quota, used int) int {
	if used >= quota {
		return 0
	}
	return quota - used
}

// QuotaError renders a stable message for quota denials.
func QuotaError(planType string, d Decision) error {
	return fmt.Errorf("regeneration quota exceeded for %s: %d of %d used this period", planType, d.Used, d.Quota)
}
