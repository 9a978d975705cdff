package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeBetPlace    TransactionType = "bet_place"
	TransactionTypeBetRefund   TransactionType = "bet_refund"
	TransactionTypeBetPayout   TransactionType = "bet_payout"
	TransactionTypeAdminAdjust TransactionType = "admin_adjust"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet   RelatedType = "bet"
	RelatedTypeMatch RelatedType = "match"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
