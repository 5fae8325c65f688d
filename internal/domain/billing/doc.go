// Package billing provides the invoicing bounded context for the school
// payment backend.
//
// The central aggregate is Invoice: a numbered, school-scoped bill issued to
// a student with one or more line items. Invoices move through a lifecycle
// (draft, sent, partially_paid, paid, overdue, cancelled) driven by payments
// recorded against them. Payment history entries are append-only; a fully
// settled invoice earns a receipt in the ledger context.
//
// The billing context integrates with:
//   - ledger: payment methods and receipt issuance on settlement
//   - students: the billed student read model
package billing
