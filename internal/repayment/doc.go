// Package repayment turns a loan's terms and its payment ledger into a
// point-in-time view of what is owed and paid, and validates new payment
// submissions against that view.
//
// Every function here is pure: no I/O, no clock reads, no goroutines. Amounts
// are int64 minor currency units throughout.
package repayment
