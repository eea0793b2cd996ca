// Package errors provides the error taxonomy for storefront operations.
package errors

import "errors"

// ErrService is the catalog client's translation of any transport or
// backend-reported failure. It never crosses the store boundary untranslated.
var ErrService = errors.New("product service error")

var ErrProductNotFound = errors.New("product not found")

// ErrCatalogLoad means listing the remote catalog failed; the local cache is
// unchanged.
var ErrCatalogLoad = errors.New("failed to load catalog")

// ErrCatalogWrite means a create/update/delete against the remote catalog
// failed; the local cache is unchanged.
var ErrCatalogWrite = errors.New("failed to write to catalog")

// ErrOrderPlacement means one or more stock updates failed during checkout.
// No local state was mutated, but the remote catalog may hold partial stock
// decrements until the next catalog load reconciles the cache.
var ErrOrderPlacement = errors.New("failed to place order")
