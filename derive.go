package networth

// Derive sets the balance of a from its variant fields and returns a.
//
// The rule depends only on the variant:
//   - investment-like accounts: the uninvested amount (holdings are not valued)
//   - Credit Card: minus the absolute outstanding debt
//   - Checking and Savings: the current amount
//   - Loan: minus the absolute principal left
//   - Payroll: the net income
//   - Other: total income minus total debt
//
// Any balance previously set on a is overwritten.
func Derive(a Account) Account {
	if a == nil {
		panic("cannot derive the balance of a nil account")
	}
	a.Common().Balance = a.derive()
	return a
}
