package networth

import (
	"errors"
	"fmt"
	"strings"
)

// FieldKind is the shape of value a Field accepts.
type FieldKind string

const (
	KindNumber FieldKind = "number" // decimal, numeric strings are coerced
	KindText   FieldKind = "text"
	KindDate   FieldKind = "date"   // YYYY-MM-DD
	KindBool   FieldKind = "bool"   // profile only
	KindList   FieldKind = "list"   // ordered elements, each following Elem
	KindRecord FieldKind = "record" // fixed sub-record following Elem
)

// Field describes one field of an account variant.
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required,omitempty"`
	NonNegative bool      `json:"nonNegative,omitempty"`
	Elem        Contract  `json:"elem,omitempty"` // for lists and records
}

// Contract is the ordered list of fields a variant accepts.
type Contract []Field

// Field returns the field called name.
func (c Contract) Field(name string) (Field, bool) {
	for _, f := range c {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ErrUnknownType is returned when a type tag is not in the registry.
var ErrUnknownType = errors.New("unknown account type")

type registryEntry struct {
	typ    AccountType
	fields Contract
	new    func() Account
}

// field constructors, they keep the registry table readable.
func num(name, label string) Field  { return Field{Name: name, Label: label, Kind: KindNumber} }
func pos(name, label string) Field  { return Field{Name: name, Label: label, Kind: KindNumber, NonNegative: true} }
func text(name, label string) Field { return Field{Name: name, Label: label, Kind: KindText} }
func day(name, label string) Field  { return Field{Name: name, Label: label, Kind: KindDate} }
func required(f Field) Field        { f.Required = true; return f }
func list(name, label string, elem ...Field) Field {
	return Field{Name: name, Label: label, Kind: KindList, Elem: elem}
}
func record(name, label string, elem ...Field) Field {
	return Field{Name: name, Label: label, Kind: KindRecord, Elem: elem}
}

// headerContract is shared by every variant. The balance is not part of it:
// it is derived and never accepted from input.
var headerContract = Contract{
	text("id", "ID"),
	required(text("name", "Account Name")),
	required(text("type", "Account Type")),
	text("currency", "Currency"),
}

var (
	holdingsField = list("holdings", "Holdings",
		text("id", "ID"),
		required(text("ticker", "Ticker")),
		pos("quantity", "Quantity"),
		pos("averageCostBasis", "Average Cost Basis"),
	)
	transactionsField = list("transactions", "Current Billing Cycle Transactions",
		text("id", "ID"),
		required(num("amount", "Amount")),
		text("category", "Category"),
	)

	investingContract = Contract{
		required(num("uninvestedAmount", "Uninvested Cash Amount")),
		holdingsField,
	}
	retirementContract = append(investingContract.clone(),
		pos("averageMonthlyContribution", "Avg. Monthly Contribution"),
	)
	employerContract = append(retirementContract.clone(),
		text("employerMatch", "Employer Match"),
	)
	depositContract = Contract{
		required(num("currentAmount", "Current Amount")),
		pos("interestRate", "Interest Rate (APY %)"),
		pos("minimumBalanceRequirement", "Minimum Balance Requirement"),
		text("overdraftProtection", "Overdraft Protection"),
		text("rewardsSummary", "Rewards Summary"),
		record("fee", "Fees",
			pos("noMinimumBalanceFee", "Min. Balance Fee"),
			pos("monthlyFee", "Monthly Fee"),
			pos("atmFee", "ATM Fee"),
			pos("overdraftFee", "Overdraft Fee"),
		),
		transactionsField,
	}
)

// registry is the single place where account variants are declared, in display order.
var registry = []registryEntry{
	{TypeInvestment, investingContract, func() Account { return new(Investment) }},
	{TypeHSA, retirementContract, func() Account { return new(HSA) }},
	{TypeTraditionalIRA, retirementContract, func() Account { return new(TraditionalIRA) }},
	{TypeRothIRA, retirementContract, func() Account { return new(RothIRA) }},
	{TypeRetirement401k, employerContract, func() Account { return new(Retirement401k) }},
	{TypeRoth401k, employerContract, func() Account { return new(Roth401k) }},
	{TypeCreditCard, Contract{
		required(num("outstandingDebt", "Outstanding Debt")),
		pos("totalLimit", "Total Credit Limit"),
		pos("currentLimit", "Current Credit Limit"),
		pos("interestRate", "Interest Rate (APR %)"),
		pos("annualFee", "Annual Fee"),
		text("rewardsSummary", "Rewards Summary"),
		transactionsField,
	}, func() Account { return new(CreditCard) }},
	{TypeChecking, depositContract, func() Account { return new(Checking) }},
	{TypeSavings, depositContract, func() Account { return new(Savings) }},
	{TypeLoan, Contract{
		required(num("principalLeft", "Principal Left")),
		pos("interestRate", "Interest Rate (%)"),
		pos("monthlyContribution", "Monthly Payment"),
		text("loanTerm", "Loan Term"),
		text("loanType", "Loan Type"),
		day("loanStartDate", "Loan Start Date"),
		day("loanEndDate", "Loan End Date"),
		day("paymentDueDate", "Next Payment Due Date"),
		pos("totalPaid", "Total Paid to Date"),
		record("fees", "Loan Fees",
			pos("lateFee", "Late Fee"),
			pos("prepaymentPenalty", "Prepayment Penalty"),
			pos("originationFee", "Origination Fee"),
			pos("otherFees", "Other Fees"),
		),
		list("paymentHistory", "Payment History",
			text("id", "ID"),
			day("date", "Date"),
			required(pos("amount", "Amount")),
			text("note", "Note"),
		),
		text("collateral", "Collateral"),
	}, func() Account { return new(Loan) }},
	{TypePayroll, Contract{
		required(pos("netIncome", "Net Income")),
		pos("grossIncome", "Gross Income"),
		record("withholding", "Withholdings",
			pos("federal", "Federal Taxes"),
			pos("state", "State Taxes"),
			pos("socialSecurity", "Social Security"),
			pos("medicare", "Medicare"),
			pos("other", "Other Deductions"),
		),
		text("state", "State of Work"),
		text("payFrequency", "Pay Frequency"),
		day("payPeriodStartDate", "Pay Period Start Date"),
		day("payPeriodEndDate", "Pay Period End Date"),
		text("benefits", "Benefits"),
		pos("bonusIncome", "Bonus Income"),
		pos("yearToDateIncome", "Year-to-Date Income"),
	}, func() Account { return new(Payroll) }},
	{TypeOther, Contract{
		required(pos("totalIncome", "Total Income")),
		required(pos("totalDebt", "Total Debt")),
	}, func() Account { return new(Other) }},
}

func (c Contract) clone() Contract { return append(Contract(nil), c...) }

// Types returns all the account types in display order.
func Types() []AccountType {
	types := make([]AccountType, len(registry))
	for i, e := range registry {
		types[i] = e.typ
	}
	return types
}

// FieldsFor returns the full contract of type t: the common header fields
// followed by the variant specific ones.
func FieldsFor(t AccountType) (Contract, bool) {
	e, ok := lookup(t)
	if !ok {
		return nil, false
	}
	return append(headerContract.clone(), e.fields...), true
}

// ParseType resolves s into an account type.
//
// Matching ignores case and surrounding spaces. The legacy combined
// "Checking/Savings" tag resolves to Checking.
func ParseType(s string) (AccountType, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Checking/Savings") {
		return TypeChecking, nil
	}
	for _, e := range registry {
		if strings.EqualFold(s, string(e.typ)) {
			return e.typ, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, s)
}

func lookup(t AccountType) (registryEntry, bool) {
	for _, e := range registry {
		if e.typ == t {
			return e, true
		}
	}
	return registryEntry{}, false
}

// newAccount returns a zero variant of type t, with its type tag set.
// It panics if t is not registered.
func newAccount(t AccountType) Account {
	e, ok := lookup(t)
	if !ok {
		panic(fmt.Sprintf("account type %q is not registered", t))
	}
	a := e.new()
	a.Common().Type = t
	return a
}
