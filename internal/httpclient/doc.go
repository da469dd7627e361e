// Package httpclient is the REST plumbing shared by the inference and
// tabular-store clients.
//
//	client.go - rate-limited JSON client, HTTPError
//	auth.go   - credential strategies applied to each request
package httpclient
