package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusToPay         = "TO_PAY"
	OrderStatusToReceive     = "TO_RECEIVE"
	OrderStatusCompleted     = "COMPLETED"
	OrderStatusPendingReturn = "PENDING_RETURN"
	OrderStatusReturned      = "RETURNED"
	OrderStatusToRefund      = "TO_REFUND"
	OrderStatusRefunded      = "REFUNDED"
	OrderStatusVoid          = "VOID"
	OrderStatusCancelled     = "CANCELLED"
	OrderStatusArchived      = "ARCHIVED"
)

// Terminal statuses (CANCELLED, VOID, TO_REFUND, REFUNDED, ARCHIVED) are
// produced by the customer-facing app; the admin service only reads them.

const (
	PaymentMethodCash = "CASH"
	PaymentMethodBank = "BANK"
)

// ── Staff roles (CHECK constrained in DB) ──

const (
	RoleAdmin      = "ADMIN"
	RoleAccountant = "ACCOUNTANT"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleCustomer   = "CUSTOMER"
)

const (
	AccountStatusActive   = "ACTIVE"
	AccountStatusDisabled = "DISABLED"
)

// ── Configurable labels (no DB constraint) ──

const (
	ConfirmViaManual = "MANUAL"
	ConfirmViaScan   = "SCAN"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderUnisex = "UNISEX"
)
