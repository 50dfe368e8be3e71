// Package tokenledger contains the HMN fungible token ledger: balances,
// allowances, the router role and the transfer cap rule (HMN01) evaluated on
// every transfer.
//
// The distributor/migrator context talks to this ledger only through balance
// queries, transfers and allowance-based pulls.
package tokenledger
