// Package migratordistributor owns the HMN fee distributor and legacy token
// migrator: tax configuration, beneficiary addresses, the token pair, the
// migration reserve, periodic fee splitting and old-to-new token exchange.
//
// Every mutating use case runs in one unit of work together with the ledgers
// it touches, so a failed ledger call leaves no partial state behind.
package migratordistributor
