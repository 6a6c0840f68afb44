// Package dropregistry implements the GreenLoop issuance registry: an
// append-only audit log of verified recycling "drops". Confirming a drop
// mints ledger credit for the recycling user in the same operation; revoking
// or disputing a drop is a terminal audit annotation that never claws back
// issued balance.
//
// The module holds one immutable reference to the ledger, injected as a
// narrow port at construction. Layering follows the token-core convention:
// domain, application, ports, adapters, transport.
package dropregistry
