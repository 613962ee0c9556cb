package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletExam is a prepaid exam quota tracked per root.
type WalletExam struct {
	Code          int64           `db:"code" json:"code"`
	RootCode      int64           `db:"root_code" json:"root_code"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Count         int             `db:"count" json:"count"`
	OriginalCount int             `db:"original_count" json:"original_count"`
	DateStart     time.Time       `db:"date_start" json:"date_start"`
	ExpireDate    time.Time       `db:"expire_date" json:"expire_date"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}

// ExpiryBucket groups wallet rows by time to expiry.
type ExpiryBucket string

const (
	ExpiryExpired  ExpiryBucket = "expired"
	ExpiryExpiring ExpiryBucket = "expiring"
	ExpiryValid    ExpiryBucket = "valid"
)

// WalletFilter narrows the wallet list; zero values match everything.
type WalletFilter struct {
	Code     string
	Status   string
	Expiry   ExpiryBucket
	RootCode int64
}
