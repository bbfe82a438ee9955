// Package networth models the accounts of a personal finance dashboard and
// derives a net worth picture from them.
//
// The core functionalities include:
//   - Account Model: a closed union of account variants (investment,
//     retirement, credit card, checking, savings, loan, payroll, other),
//     selected by their type tag and described by a field contract in the
//     type registry.
//   - Balance Derivation: every account carries a single signed balance that
//     is never entered directly, it is always computed from the variant's own
//     fields (debts are negative).
//   - Validation: untrusted submissions are checked against the contract of
//     their type, quick fixes are applied, and every failing field is
//     reported with its path.
//   - Store: the account collection, with unique identifiers, persisted
//     write-through to a storage slot and reloaded when another context
//     changes it.
//
// Net worth is reported per currency, balances in different currencies are
// never converted.
package networth
