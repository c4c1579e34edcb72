package entities

// OutcomeEmailData carries the fields rendered into the batch outcome
// notification.
type OutcomeEmailData struct {
	Renter      string
	BatchID     string
	Confirmed   bool
	FailReason  string
	Lines       []OutcomeLine
	CurrentYear int
}

// OutcomeLine is one quote of the batch as shown to the renter.
type OutcomeLine struct {
	Company            string
	CarType            string
	StartDateFormatted string
	EndDateFormatted   string
	Price              float64
}
