// Package entities provides the core domain types of wardenctl: capability
// requests and outcomes, session records, admission requests and verdicts,
// and policy metadata. They carry no behavior beyond construction helpers.
package entities
