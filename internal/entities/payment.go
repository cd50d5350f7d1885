package entities

import "time"

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodPaystack     PaymentMethod = "paystack"
	MethodFlutterwave  PaymentMethod = "flutterwave"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodPaystack, MethodFlutterwave:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentProcessing, PaymentCompleted, PaymentFailed},
	PaymentProcessing:        {PaymentCompleted, PaymentFailed},
	PaymentCompleted:         {PaymentPartiallyRefunded, PaymentRefunded},
	PaymentPartiallyRefunded: {PaymentPartiallyRefunded, PaymentRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the payment blocks a new attempt for its order.
// Only a terminal failure frees the order for another initiation.
func (s PaymentStatus) Active() bool {
	return s != PaymentFailed
}

type Refund struct {
	ID        string
	Amount    int64
	Reason    string
	ActorID   string
	CreatedAt time.Time
}

type Payment struct {
	ID       string
	OrderID  string
	UserID   string
	Amount   int64
	Currency string
	Method   PaymentMethod
	Gateway  string
	// Reference is the gateway correlation reference used to reconcile
	// verification calls and webhooks back to this payment.
	Reference    string
	Status       PaymentStatus
	GatewayTxnID string
	Metadata     map[string]string
	Refunds      []Refund
	LastErrCode  string
	LastErrMsg   string
	CreatedAt    time.Time
	CompletedAt  *time.Time
	FailedAt     *time.Time
}

func (p Payment) OwnedBy(userID string) bool {
	return p.UserID == userID
}

func (p Payment) RefundedTotal() int64 {
	var sum int64
	for _, r := range p.Refunds {
		sum += r.Amount
	}
	return sum
}
