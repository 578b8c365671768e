// Package errors provides the sentinel errors shared by the catalog and cart.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrIndexOutOfRange = errors.New("cart index out of range")
