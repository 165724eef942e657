package payments

// CreditPackage is a purchasable credit bundle. Prices are fixed server-side;
// the client-submitted amount is only ever validated against this table.
type CreditPackage struct {
	ID          string
	Credits     int
	AmountCents int
}

var creditPackages = map[string]CreditPackage{
	"starter": {ID: "starter", Credits: 50, AmountCents: 499},
	"plus":    {ID: "plus", Credits: 150, AmountCents: 1199},
	"premium": {ID: "premium", Credits: 400, AmountCents: 2500},
	"max":     {ID: "max", Credits: 1000, AmountCents: 4999},
}

// LookupPackage returns the package for id, if it exists.
func LookupPackage(id string) (CreditPackage, bool) {
	p, ok := creditPackages[id]
	return p, ok
}
