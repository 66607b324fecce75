package router

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"base-swap/pkg/types"
)

// Revert strings raised by SwapRouter02 and its periphery base contracts
const (
	reasonTooLittleReceived = "Too little received"
	reasonInsufficientWETH  = "Insufficient WETH9"
	reasonTooOld            = "Transaction too old"
)

var (
	transferTopic   = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	withdrawalTopic = crypto.Keccak256Hash([]byte("Withdrawal(address,uint256)"))
)

// DecodeRevert returns the Error(string) reason of a revert payload
func DecodeRevert(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return "", false
	}
	return reason, true
}

// ClassifyRevert maps a router revert reason onto an error kind
func ClassifyRevert(reason string) types.ErrorKind {
	switch {
	case strings.Contains(reason, reasonTooLittleReceived), strings.Contains(reason, reasonInsufficientWETH):
		return types.KindSlippageExceeded
	case strings.Contains(reason, reasonTooOld):
		return types.KindDeadlineExpired
	default:
		return types.KindSwapReverted
	}
}

// ClassifyRevertData decodes and classifies a raw revert payload
func ClassifyRevertData(data []byte) types.ErrorKind {
	reason, ok := DecodeRevert(data)
	if !ok {
		return types.KindSwapReverted
	}
	return ClassifyRevert(reason)
}

// TokenReceived sums ERC20 Transfer amounts of token sent to recipient in the receipt
func TokenReceived(receipt *ethtypes.Receipt, token, recipient common.Address) *big.Int {
	total := new(big.Int)
	found := false
	for _, log := range receipt.Logs {
		if log.Address != token || len(log.Topics) != 3 || log.Topics[0] != transferTopic {
			continue
		}
		if common.BytesToAddress(log.Topics[2].Bytes()) != recipient {
			continue
		}
		total.Add(total, new(big.Int).SetBytes(log.Data))
		found = true
	}
	if !found {
		return nil
	}
	return total
}

// NativeReceived sums WETH Withdrawal amounts made by the router in the receipt,
// which is what unwrapWETH9 forwards to the recipient.
func NativeReceived(receipt *ethtypes.Receipt, weth, router common.Address) *big.Int {
	total := new(big.Int)
	found := false
	for _, log := range receipt.Logs {
		if log.Address != weth || len(log.Topics) != 2 || log.Topics[0] != withdrawalTopic {
			continue
		}
		if common.BytesToAddress(log.Topics[1].Bytes()) != router {
			continue
		}
		total.Add(total, new(big.Int).SetBytes(log.Data))
		found = true
	}
	if !found {
		return nil
	}
	return total
}
