// Package odoo is a thin JSON-RPC client for the remote project-management
// backend. It exposes the generic model operations (search_read, read,
// name_search, name_get, create, write, unlink) behind a Client interface so
// the upload pipeline can be exercised against fakes.
package odoo
