// Package email maps recipient addresses to delivery providers and sends
// recovery messages through per-provider SMTP accounts.
//
// Resolution is a pure function of the address's domain portion over a table
// fixed at construction time; it performs no network access. Delivery goes
// through wneessen/go-mail and is never retried here.
package email
