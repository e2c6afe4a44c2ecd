// Package integrations provides shared plumbing for the remote API
// clients (the hosting platform in [github], the vulnerability database
// in [osv]).
//
// The base [Client] layers JSON encoding/decoding and response caching on
// top of the retrying transport in pkg/httputil. Service-specific
// clients embed it and add typed operations.
package integrations
