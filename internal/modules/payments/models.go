package payments

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StageRequest = "REQUEST"
	StageVerify  = "VERIFY"
	StageCancel  = "CANCEL"
)

// PaymentAttempt is one row of the attempt ledger: a verbatim record of a
// single gateway interaction. Rows are appended and never updated or deleted.
type PaymentAttempt struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	OrderID   string         `gorm:"type:char(36);not null;index:ix_payment_attempts_order_id"`
	Stage     string         `gorm:"type:varchar(16);not null;index:ix_payment_attempts_stage_authority,priority:1"`
	Code      *int           `gorm:""`
	Authority string         `gorm:"type:varchar(255);not null;default:'';index:ix_payment_attempts_stage_authority,priority:2"`
	RefID     *string        `gorm:"type:varchar(64)"`
	Raw       datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt time.Time      `gorm:"type:datetime(3);not null"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
