package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Command is a parsed swap command. The amount is not validated here; the
// engine checks it against the input asset's precision.
type Command struct {
	Amount string
	From   string
	To     string
}

var commandPattern = regexp.MustCompile(`^([0-9.]+)\s+([A-Z0-9]+)\s+(?:TO|FOR|->)\s+([A-Z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 0.1 ETH to USDC"
//   - "25 USDC to ETH"
//   - "25 usdc for eth"
func ParseSwapCommand(command string) (*Command, error) {
	// Normalize the command
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 0.1 ETH to USDC')")
	}

	return &Command{
		Amount: matches[1],
		From:   NormalizeTokenSymbol(matches[2]),
		To:     NormalizeTokenSymbol(matches[3]),
	}, nil
}

// ParseArgs joins cobra args and parses them as a swap command
func ParseArgs(args []string) (*Command, error) {
	return ParseSwapCommand(strings.Join(args, " "))
}

// Validate checks that a command has all required fields
func (c *Command) Validate() error {
	if c.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if c.From == "" {
		return fmt.Errorf("source token is required")
	}
	if c.To == "" {
		return fmt.Errorf("destination token is required")
	}
	if c.From == c.To {
		return fmt.Errorf("source and destination token are the same")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"ETHER":  "ETH",
		"USDC.E": "USDC",
	}
	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
