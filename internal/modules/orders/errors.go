package orders

import "errors"

var ErrProductNotAvailable = errors.New("product not available")
