package swap

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"base-swap/pkg/amount"
	"base-swap/pkg/types"
)

// Default timings
const (
	DefaultDeadlineWindow = 20 * time.Minute
	DefaultDeadlineGrace  = time.Duration(0)
	DefaultPollInterval   = 2 * time.Second
)

// Pair is one supported swap direction with its pool fee tier
type Pair struct {
	From    types.Asset
	To      types.Asset
	FeeTier uint32
}

func (p Pair) String() string {
	return p.From.String() + "/" + p.To.String()
}

// Config is the fixed venue configuration of an Engine
type Config struct {
	Router common.Address
	WETH   common.Address
	Pairs  []Pair
	// Minimums maps an asset symbol to the smallest accepted input, as a decimal string
	Minimums map[string]string

	DeadlineWindow time.Duration
	// DeadlineGrace extends the confirmation wait past the deadline. Zero ends
	// the wait at the deadline; a few seconds absorb local clock skew.
	DeadlineGrace time.Duration
	PollInterval  time.Duration
}

func (c *Config) setDefaults() {
	if c.DeadlineWindow <= 0 {
		c.DeadlineWindow = DefaultDeadlineWindow
	}
	if c.DeadlineGrace < 0 {
		c.DeadlineGrace = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// validate checks the pair list and parses the minimums against the decimals
// of the pair input assets
func (c *Config) validate() (map[string]*big.Int, error) {
	if c.Router == (common.Address{}) {
		return nil, fmt.Errorf("router address not configured")
	}
	if len(c.Pairs) == 0 {
		return nil, fmt.Errorf("no swap pairs configured")
	}

	for _, p := range c.Pairs {
		if p.From.Equal(p.To) {
			return nil, fmt.Errorf("pair %s swaps an asset for itself", p)
		}
		if p.From.IsNative() == p.To.IsNative() {
			return nil, fmt.Errorf("pair %s must swap between the native asset and a token", p)
		}
		if p.FeeTier == 0 {
			return nil, fmt.Errorf("pair %s has no fee tier", p)
		}
	}
	if c.WETH == (common.Address{}) {
		return nil, fmt.Errorf("wrapped native address not configured")
	}

	minimums := make(map[string]*big.Int)
	for symbol, value := range c.Minimums {
		asset, ok := c.inputAsset(symbol)
		if !ok {
			continue
		}
		parsed, err := amount.Parse(value, asset.Decimals)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum %q for %s: %w", value, symbol, err)
		}
		minimums[asset.String()] = parsed
	}
	return minimums, nil
}

func (c *Config) inputAsset(symbol string) (types.Asset, bool) {
	for _, p := range c.Pairs {
		if strings.EqualFold(p.From.Symbol, symbol) {
			return p.From, true
		}
	}
	return types.Asset{}, false
}

func (c *Config) findPair(from, to types.Asset) (Pair, bool) {
	for _, p := range c.Pairs {
		if p.From.Equal(from) && p.To.Equal(to) {
			return p, true
		}
	}
	return Pair{}, false
}
