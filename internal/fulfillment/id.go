package fulfillment

import "github.com/google/uuid"

func newSaleID() string {
	return uuid.NewString()
}
