// Package listingexchange is the marketplace slice of the token core. It
// lists recycled-material offers priced in ledger units and settles
// purchases through ledger allowances instead of holding escrow. A buy moves
// quantity*price from the buyer to the seller via the exchange operator's
// spending allowance, then decrements the listing in the same operation.
package listingexchange
