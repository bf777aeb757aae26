package solana

import "github.com/shopspring/decimal"

// lamportsPerSOLExp is the number of decimals of SOL
const lamportsPerSOLExp = 9

// FormatSOL renders an amount of lamports as SOL
func FormatSOL(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-lamportsPerSOLExp).String()
}
