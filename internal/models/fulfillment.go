package models

// FulfillmentPlanItem is the per-ticket-type unit of work for one completed
// session: how many units to issue against which current ticket-type row,
// and the pre-built Sale rows to insert.
type FulfillmentPlanItem struct {
	TicketType TicketType
	Quantity   int
	Sales      []Sale
}

// FulfillmentOutcome reports what a fulfillment transaction actually did.
type FulfillmentOutcome struct {
	Created []Sale
	// StockConflicts names ticket types whose conditional stock update
	// matched no row, meaning the remaining stock could not cover the paid
	// quantity. No sales are issued for those types.
	StockConflicts []string
	// AlreadyFulfilled is set when sales for the session existed before the
	// transaction ran; ExistingCount carries how many.
	AlreadyFulfilled bool
	ExistingCount    int
}
