// Package models defines the persisted records for billcalc.
//
// # Records
//
//   - Calculator: a bill calculator with its line items, guest-count mode and tax basis
//   - LineItem: one priced line on a calculator
//   - User: an account; the user ID doubles as the tenant ID
//   - GuestList: the attending guest count for a tenant, synced into Auto-mode calculators
//
// # Design Principles
//
// 1. **Flat records**: models carry only stored fields. Derived totals are never persisted
// and are recomputed by the calculator package on load.
// 2. **Strings for enums**: item kinds and guest-count modes are stored as strings
// ("per_person", "auto", ...) and validated when a record is turned into a calculator.
// 3. **IDs, not pointers**: relationships (tenant, vendor, event, tax info) are ID strings.
package models
