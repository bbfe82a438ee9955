package networth

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/etnz/networth/date"
)

// AccountType is the tag that selects the variant of an Account.
type AccountType string

// Account types, in their canonical display order.
const (
	TypeInvestment     AccountType = "Investment"
	TypeHSA            AccountType = "HSA"
	TypeTraditionalIRA AccountType = "Traditional IRA"
	TypeRothIRA        AccountType = "Roth IRA"
	TypeRetirement401k AccountType = "Retirement 401k"
	TypeRoth401k       AccountType = "Roth 401k"
	TypeCreditCard     AccountType = "Credit Card"
	TypeChecking       AccountType = "Checking"
	TypeSavings        AccountType = "Savings"
	TypeLoan           AccountType = "Loan"
	TypePayroll        AccountType = "Payroll"
	TypeOther          AccountType = "Other"
)

// Account is the closed union of every account variant.
//
// The unexported methods keep the union closed: only the variants declared in
// this package implement it, and each of them must declare its own balance
// rule.
type Account interface {
	Kind() AccountType // Kind returns the variant tag.
	Common() *Header   // Common returns the fields shared by all variants.

	// derive computes the canonical balance from the variant fields.
	derive() Amount
	// keyElements assigns an id to every nested list element that has none.
	keyElements(newID func() string)
}

// Header holds the fields every account variant carries.
type Header struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	Currency string      `json:"currency"`
	Balance  Amount      `json:"balance"` // Balance is always derived, see Derive.
}

// Common returns h itself, it is promoted to every variant.
func (h *Header) Common() *Header { return h }

// Money returns the balance in the account currency.
func (h *Header) Money() Money { return M(h.Balance, h.Currency) }

// --- investment-like accounts ---

// Holding is a position held in an investment-like account.
type Holding struct {
	ID               string `json:"id"`
	Ticker           string `json:"ticker"`
	Quantity         Amount `json:"quantity"`
	AverageCostBasis Amount `json:"averageCostBasis"`
}

// investing is the component shared by every investment-like account.
type investing struct {
	UninvestedAmount Amount    `json:"uninvestedAmount"`
	Holdings         []Holding `json:"holdings"`
}

// derive is the uninvested cash only: holdings are informational.
func (i *investing) derive() Amount { return i.UninvestedAmount }

func (i *investing) keyElements(newID func() string) {
	for k := range i.Holdings {
		if i.Holdings[k].ID == "" {
			i.Holdings[k].ID = newID()
		}
	}
}

// retirement adds the contribution rate to tax-advantaged accounts.
type retirement struct {
	investing
	AverageMonthlyContribution Amount `json:"averageMonthlyContribution"`
}

// Investment is a taxable brokerage account.
type Investment struct {
	Header
	investing
}

// HSA is a health savings account, invested like a brokerage account.
type HSA struct {
	Header
	retirement
}

// TraditionalIRA is a pre-tax individual retirement account.
type TraditionalIRA struct {
	Header
	retirement
}

// RothIRA is a post-tax individual retirement account.
type RothIRA struct {
	Header
	retirement
}

// Retirement401k is an employer sponsored pre-tax plan.
type Retirement401k struct {
	Header
	retirement
	EmployerMatch string `json:"employerMatch"`
}

// Roth401k is an employer sponsored post-tax plan.
type Roth401k struct {
	Header
	retirement
	EmployerMatch string `json:"employerMatch"`
}

func (*Investment) Kind() AccountType     { return TypeInvestment }
func (*HSA) Kind() AccountType            { return TypeHSA }
func (*TraditionalIRA) Kind() AccountType { return TypeTraditionalIRA }
func (*RothIRA) Kind() AccountType        { return TypeRothIRA }
func (*Retirement401k) Kind() AccountType { return TypeRetirement401k }
func (*Roth401k) Kind() AccountType       { return TypeRoth401k }

// --- cards and bank accounts ---

// CycleTransaction is a movement of the current billing cycle.
type CycleTransaction struct {
	ID       string `json:"id"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
}

func keyTransactions(txs []CycleTransaction, newID func() string) {
	for k := range txs {
		if txs[k].ID == "" {
			txs[k].ID = newID()
		}
	}
}

// CreditCard is a revolving credit line. Its balance is the debt, always negative.
type CreditCard struct {
	Header
	TotalLimit      Amount             `json:"totalLimit"`
	CurrentLimit    Amount             `json:"currentLimit"`
	InterestRate    Percent            `json:"interestRate"`
	OutstandingDebt Amount             `json:"outstandingDebt"`
	AnnualFee       Amount             `json:"annualFee"`
	RewardsSummary  string             `json:"rewardsSummary"`
	Transactions    []CycleTransaction `json:"transactions"`
}

func (*CreditCard) Kind() AccountType { return TypeCreditCard }

func (c *CreditCard) derive() Amount { return c.OutstandingDebt.Abs().Neg() }

func (c *CreditCard) keyElements(newID func() string) { keyTransactions(c.Transactions, newID) }

// DepositFee lists the fees a bank charges on a checking or savings account.
type DepositFee struct {
	NoMinimumBalanceFee Amount `json:"noMinimumBalanceFee"`
	MonthlyFee          Amount `json:"monthlyFee"`
	AtmFee              Amount `json:"atmFee"`
	OverdraftFee        Amount `json:"overdraftFee"`
}

// deposit is the component shared by checking and savings accounts.
type deposit struct {
	CurrentAmount             Amount             `json:"currentAmount"`
	InterestRate              Percent            `json:"interestRate"`
	MinimumBalanceRequirement Amount             `json:"minimumBalanceRequirement"`
	OverdraftProtection       string             `json:"overdraftProtection"`
	RewardsSummary            string             `json:"rewardsSummary"`
	Fee                       DepositFee         `json:"fee"`
	Transactions              []CycleTransaction `json:"transactions"`
}

func (d *deposit) derive() Amount { return d.CurrentAmount }

func (d *deposit) keyElements(newID func() string) { keyTransactions(d.Transactions, newID) }

// Checking is a checking deposit account.
type Checking struct {
	Header
	deposit
}

// Savings is a savings deposit account.
type Savings struct {
	Header
	deposit
}

func (*Checking) Kind() AccountType { return TypeChecking }
func (*Savings) Kind() AccountType  { return TypeSavings }

// --- loans ---

// LoanFees lists the fees currently outstanding on a loan.
type LoanFees struct {
	LateFee           Amount `json:"lateFee"`
	PrepaymentPenalty Amount `json:"prepaymentPenalty"`
	OriginationFee    Amount `json:"originationFee"`
	OtherFees         Amount `json:"otherFees"`
}

// Payment is an entry of a loan payment history.
type Payment struct {
	ID     string    `json:"id"`
	Date   date.Date `json:"date"`
	Amount Amount    `json:"amount"`
	Note   string    `json:"note"`
}

// Loan is an amortizing debt. Its balance is the principal left, always negative.
type Loan struct {
	Header
	PrincipalLeft       Amount    `json:"principalLeft"`
	InterestRate        Percent   `json:"interestRate"`
	MonthlyContribution Amount    `json:"monthlyContribution"`
	LoanTerm            string    `json:"loanTerm"`
	LoanType            string    `json:"loanType"`
	LoanStartDate       date.Date `json:"loanStartDate"`
	LoanEndDate         date.Date `json:"loanEndDate"`
	PaymentDueDate      date.Date `json:"paymentDueDate"`
	TotalPaid           Amount    `json:"totalPaid"`
	Fees                LoanFees  `json:"fees"`
	PaymentHistory      []Payment `json:"paymentHistory"`
	Collateral          string    `json:"collateral,omitempty"`
}

func (*Loan) Kind() AccountType { return TypeLoan }

func (l *Loan) derive() Amount { return l.PrincipalLeft.Abs().Neg() }

func (l *Loan) keyElements(newID func() string) {
	for k := range l.PaymentHistory {
		if l.PaymentHistory[k].ID == "" {
			l.PaymentHistory[k].ID = newID()
		}
	}
}

// --- income ---

// Withholding is the per pay period breakdown of amounts withheld from gross income.
type Withholding struct {
	Federal        Amount `json:"federal"`
	State          Amount `json:"state"`
	SocialSecurity Amount `json:"socialSecurity"`
	Medicare       Amount `json:"medicare"`
	Other          Amount `json:"other"`
}

// Payroll describes the most recent pay period. Its balance is the net income of that period.
type Payroll struct {
	Header
	GrossIncome        Amount      `json:"grossIncome"`
	NetIncome          Amount      `json:"netIncome"`
	Withholding        Withholding `json:"withholding"`
	State              string      `json:"state"`
	PayFrequency       string      `json:"payFrequency"`
	PayPeriodStartDate date.Date   `json:"payPeriodStartDate"`
	PayPeriodEndDate   date.Date   `json:"payPeriodEndDate"`
	Benefits           string      `json:"benefits"`
	BonusIncome        Amount      `json:"bonusIncome"`
	YearToDateIncome   Amount      `json:"yearToDateIncome"`
}

func (*Payroll) Kind() AccountType { return TypePayroll }

func (p *Payroll) derive() Amount { return p.NetIncome }

func (*Payroll) keyElements(func() string) {}

// Other is the catch-all for anything not otherwise modeled.
type Other struct {
	Header
	TotalIncome Amount `json:"totalIncome"`
	TotalDebt   Amount `json:"totalDebt"`
}

func (*Other) Kind() AccountType { return TypeOther }

func (o *Other) derive() Amount { return o.TotalIncome.Sub(o.TotalDebt) }

func (*Other) keyElements(func() string) {}

// --- collections ---

// Accounts is an ordered collection of accounts. It knows how to decode
// itself from JSON using the type tag of each element.
type Accounts []Account

// UnmarshalJSON implements the json.Unmarshaler interface for Accounts.
func (as *Accounts) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	list := make(Accounts, 0, len(raws))
	for i, raw := range raws {
		a, err := DecodeAccount(raw)
		if err != nil {
			return fmt.Errorf("account #%d: %w", i, err)
		}
		list = append(list, a)
	}
	*as = list
	return nil
}

// DecodeAccount decodes a single JSON account whose variant is selected by its "type" field.
// It does not validate the content, use Validate for untrusted input.
func DecodeAccount(data []byte) (Account, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	t, err := ParseType(probe.Type)
	if err != nil {
		return nil, err
	}
	a := newAccount(t)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("cannot decode %s account: %w", t, err)
	}
	a.Common().Type = t
	return a, nil
}

// Clone returns a deep copy of a.
func Clone(a Account) Account {
	data, err := json.Marshal(a)
	if err != nil {
		panic(fmt.Sprintf("account %q cannot be marshaled: %v", a.Common().ID, err))
	}
	c, err := DecodeAccount(data)
	if err != nil {
		panic(fmt.Sprintf("account %q cannot be decoded back: %v", a.Common().ID, err))
	}
	return c
}

// Equal reports whether a and b hold the same variant with the same values.
func Equal(a, b Account) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	da, erra := json.Marshal(a)
	db, errb := json.Marshal(b)
	return erra == nil && errb == nil && bytes.Equal(da, db)
}
