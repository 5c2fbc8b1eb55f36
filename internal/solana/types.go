package solana

import (
	"math"
	"strconv"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Well-known program IDs.
const (
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

// TokenAmount is an SPL token amount as returned by getTokenSupply and
// getTokenAccountBalance.
type TokenAmount struct {
	Amount   string // raw base units
	Decimals uint8
}

// Raw parses the base-unit amount.
func (a TokenAmount) Raw() (uint64, error) {
	return strconv.ParseUint(a.Amount, 10, 64)
}

// UIAmount returns the amount scaled by decimals.
func (a TokenAmount) UIAmount() (float64, error) {
	raw, err := strconv.ParseFloat(a.Amount, 64)
	if err != nil {
		return 0, err
	}
	return raw / math.Pow10(int(a.Decimals)), nil
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
