// Package ports defines the interfaces through which the domain reaches
// infrastructure: capability backends, cluster access and policy retrieval.
// Adapters implement these interfaces; domain logic depends only on them.
package ports
