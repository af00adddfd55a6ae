/*
Package escrow implements a multi-party conditional bounty escrow.

A funder deposits fungible value for a bounty. Up to 8 recipients are owed
shares defined as basis-point splits summing to 10000. Funds are released by
a quorum of recipient confirmations, by the funder directly, or by an
arbiter resolving a dispute. Once released, value is paid out either in one
push distribution covering every recipient with leftover dust returned to
the funder, or pull-style with each recipient claiming their own share.
Before release the funder may reclaim the full balance once the configured
timelock has expired.

The deposited value is held in a wallet controlled by a condition derived
from the escrow key, so no actor other than this extension can move it.
*/
package escrow
