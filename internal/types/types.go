// README: Common identifier and money value objects used across modules.
package types

// ID is an opaque document identifier. Driver IDs equal the ID of the user
// account that authenticates as that driver.
type ID string

// Money is an amount in minor units (euro cents).
type Money struct {
	Amount   int64
	Currency string
}

// EUR builds a Money value in the default currency.
func EUR(cents int64) Money {
	return Money{Amount: cents, Currency: "EUR"}
}
