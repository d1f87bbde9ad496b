package checkout

// ValidationError rejects a cart before any session is created. The message
// is safe to surface verbatim to the buyer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError signals a missing event on the checkout path.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}
