package config

import (
	"os"
	"strings"
)

type StockPolicy string

const (
	StockPolicyAllow  StockPolicy = "allow"
	StockPolicyWarn   StockPolicy = "warn"
	StockPolicyReject StockPolicy = "reject"
)

// NegativeStockPolicy controls what happens when a movement would drive a
// cached quantity below zero.
//
// Set via env:
// - NEGATIVE_STOCK_POLICY=allow|warn|reject (default warn)
//
// "warn" records the movement and surfaces a shortfall warning to the caller;
// "reject" refuses the write; "allow" records silently.
func NegativeStockPolicy() StockPolicy {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("NEGATIVE_STOCK_POLICY")))
	switch v {
	case "allow":
		return StockPolicyAllow
	case "reject":
		return StockPolicyReject
	default:
		return StockPolicyWarn
	}
}
