package domain

import "github.com/shopspring/decimal"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Transaction types. Credits raise the wallet balance, debits lower it.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeCommission = "commission"
	TxTypeEarning    = "earning"
	TxTypeBonus      = "bonus"
	TxTypePenalty    = "penalty"
	TxTypeRefund     = "refund"
)

// Transaction statuses. Completed, failed, cancelled and rejected are terminal.
const (
	TxStatusPending    = "pending"
	TxStatusProcessing = "processing"
	TxStatusCompleted  = "completed"
	TxStatusFailed     = "failed"
	TxStatusCancelled  = "cancelled"
	TxStatusRejected   = "rejected"
)

const (
	DurationUnitDays   = "days"
	DurationUnitMonths = "months"
	DurationUnitYears  = "years"
)

// Rank tiers, derived from total deposited.
const (
	RankBronze   = "BRONZE"
	RankSilver   = "SILVER"
	RankGold     = "GOLD"
	RankPlatinum = "PLATINUM"
	RankDiamond  = "DIAMOND"
)

// System setting keys (admin-tunable, config defaults as fallback).
const (
	SettingReferralRates        = "referral_rates" // CSV of percentages, level 1 first
	SettingReferralMaxDepth     = "referral_max_depth"
	SettingCommissionOnEarnings = "commission_on_earnings" // "true"/"false"
	SettingMinWithdrawal        = "min_withdrawal"
)

var debitTypes = map[string]bool{
	TxTypeWithdrawal: true,
	TxTypePenalty:    true,
}

// IsDebit reports whether the transaction type lowers the wallet balance.
func IsDebit(txType string) bool { return debitTypes[txType] }

// SignedAmount returns the balance delta for a transaction: the amount
// itself for credits, its negation for debits. Amounts are always stored
// positive; the type carries the direction.
func SignedAmount(txType string, amount decimal.Decimal) decimal.Decimal {
	if IsDebit(txType) {
		return amount.Neg()
	}
	return amount
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case TxStatusCompleted, TxStatusFailed, TxStatusCancelled, TxStatusRejected:
		return true
	}
	return false
}

// legalTransitions is the forward-only transition table. Anything not
// listed here is an invalid transition.
var legalTransitions = map[string]map[string]bool{
	TxStatusPending: {
		TxStatusProcessing: true,
		TxStatusCompleted:  true,
		TxStatusFailed:     true,
		TxStatusCancelled:  true,
		TxStatusRejected:   true,
	},
	TxStatusProcessing: {
		TxStatusCompleted: true,
		TxStatusFailed:    true,
		TxStatusCancelled: true,
		TxStatusRejected:  true,
	},
}

// CanTransition reports whether from -> to is a legal status transition.
func CanTransition(from, to string) bool {
	return legalTransitions[from][to]
}

var rankThresholds = []struct {
	rank string
	min  int64
}{
	{RankDiamond, 100000},
	{RankPlatinum, 25000},
	{RankGold, 10000},
	{RankSilver, 2500},
	{RankBronze, 0},
}

// RankFor returns the rank tier for a cumulative deposited amount.
func RankFor(totalDeposited decimal.Decimal) string {
	for _, t := range rankThresholds {
		if totalDeposited.GreaterThanOrEqual(decimal.NewFromInt(t.min)) {
			return t.rank
		}
	}
	return RankBronze
}
