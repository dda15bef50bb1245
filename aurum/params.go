// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aurum

import "math/big"

// Constants of the accounting core.
const (
	// TokenDecimals decimal places of token amounts.
	TokenDecimals = 18

	// DefaultRewardsDuration length of a staking reward period, in seconds.
	DefaultRewardsDuration uint64 = 7 * 24 * 3600
)

var (
	// DecimalScale 10^18, the fixed-point scale shared by token amounts,
	// tier prices and the reward-per-token accumulator.
	DecimalScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
)

// Role identifiers checked by the authority registry.
var (
	RoleMinter   = Blake2b([]byte("role-minter"))
	RolePauser   = Blake2b([]byte("role-pauser"))
	RoleFunder   = Blake2b([]byte("role-funder"))
	RoleConsumer = Blake2b([]byte("role-consumer"))
)
