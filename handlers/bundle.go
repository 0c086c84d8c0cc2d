package handlers

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Availability *AvailabilityHandler
	Payment      *PaymentHandler
	Approval     *ApprovalHandler
}
