// Package models defines the core domain models for settleup.
//
// # Models
//
//   - User: Registered account, optionally linked to a payment provider and a messenger
//   - Group: People who share expenses
//   - Expense: One purchase paid by a single payer and shared by participants
//   - ExpenseItem: A line item of an itemized expense
//   - Allocation: One debtor-to-creditor obligation derived from an expense or item
//
// # Design Principles
//
// 1. **IDs over pointers**: Relationships are expressed with ID strings, never with
// back-references between records.
// 2. **Integer money**: Amounts are whole currency units stored as int64.
// 3. **Ordered participants**: Participant order is recorded and preserved, because it
// decides who absorbs the rounding remainder of an even split.
// 4. **Status is the only mutable allocation field**: Allocations are written once when the
// expense is created; afterwards only the settlement lifecycle changes their status.
package models
