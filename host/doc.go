// Package host runs sandboxed policy modules under wazero and bridges their
// host-capability calls to the callback proxy. It is the boundary that turns
// a guest's host-call ABI invocation into a proxy invocation and the proxy's
// outcome back into the guest's expected representation.
package host
