package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/glimpse-app/glimpse-api/internal/payments"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for ChargeRequest to ensure the
	// provided amount matches the server-side package price table.
	v.RegisterStructValidation(chargeStructValidation, ChargeRequest{})

	return v
}

// chargeStructValidation verifies the claimed amount equals the fixed price of
// the named package. Prices are never taken from the client.
func chargeStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ChargeRequest)

	pkg, ok := payments.LookupPackage(req.PackageID)
	if !ok {
		sl.ReportError(req.PackageID, "package_id", "PackageID", "known_package", req.PackageID)
		return
	}

	if req.AmountCents != pkg.AmountCents {
		sl.ReportError(req.AmountCents, "amount", "AmountCents", "amount_match_package",
			fmt.Sprintf("package %s costs %d, got %d", pkg.ID, pkg.AmountCents, req.AmountCents))
	}
}
