package order

import (
	"errors"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Item is one line of an order as submitted by the client.
type Item struct {
	Name     string  `json:"item"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (i Item) Validate() error {
	var result []error
	if strings.TrimSpace(i.Name) == "" {
		result = append(result, errs.NewValueIsRequiredError("item"))
	}
	if i.Quantity <= 0 {
		result = append(result, errs.NewValueIsOutOfRangeError("quantity", i.Quantity, 1, "unbounded"))
	}
	if i.Price < 0 {
		result = append(result, errs.NewValueIsOutOfRangeError("price", i.Price, 0, "unbounded"))
	}
	return errors.Join(result...)
}
