// Package rules defines the built-in conversion chains.
//
// Two chains are registered: "odoo" converts billable entries for upload to
// the company timesheet database, and "owndb" converts everything (including
// non-billable time) for the internal record store. Each rule refines a
// shared base by narrowing its matcher and overriding line fields.
package rules
