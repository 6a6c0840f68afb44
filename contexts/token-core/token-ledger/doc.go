// Package tokenledger implements the GreenLoop Credit value ledger: account
// balances, total issued supply, the immutable supply cap, and pull-based
// allowances.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition. It is the leaf module of
// the token-core context; drop-registry and listing-exchange drive it through
// narrow interfaces injected at construction.
package tokenledger
