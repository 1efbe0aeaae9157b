package payments

import "errors"

var ErrOrderNotFound = errors.New("order not found")
