package orders

import "time"

const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusPaid           = "PAID"
	StatusCanceled       = "CANCELED"
)

// Order keeps amounts in rial (IRR), the store's base unit. The payment_*
// columns belong to the payments service: nothing else writes them.
type Order struct {
	ID       string `gorm:"type:char(36);primaryKey"`
	Status   string `gorm:"type:varchar(32);not null;index:ix_orders_status"`
	Currency string `gorm:"type:char(3);not null;default:IRR"`
	TotalIRR int64  `gorm:"column:total_irr;not null"`

	PaidAt           *time.Time `gorm:"type:datetime(3)"`
	PaymentProvider  string     `gorm:"type:varchar(50);not null;default:''"`
	PaymentSessionID string     `gorm:"type:varchar(255);not null;default:'';index:ix_orders_payment_session_id"`
	PaymentRefID     *string    `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	OrderID      string    `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID    string    `gorm:"type:char(36);not null"`
	Title        string    `gorm:"type:varchar(255);not null"`
	Quantity     int       `gorm:"not null"`
	UnitPriceIRR int64     `gorm:"column:unit_price_irr;not null"`
	CreatedAt    time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

func (it OrderItem) LineTotalIRR() int64 {
	return it.UnitPriceIRR * int64(it.Quantity)
}
