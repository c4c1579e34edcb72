package entities

// ConfirmationTask is the payload handed to the work queue: one renter's
// batch of quotes to confirm atomically, plus where to send the outcome.
// Quotes are confirmed in list order.
type ConfirmationTask struct {
	BatchID       string  `json:"batch_id"`
	NotifyAddress string  `json:"notify_address"`
	NotifyPhone   string  `json:"notify_phone,omitempty"`
	Quotes        []Quote `json:"quotes"`
}
