package stub

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RevertError mimics the JSON-RPC error a node returns for a reverted call.
// It implements rpc.DataError.
type RevertError struct {
	Reason string
	Data   []byte
}

// NewRevertError encodes reason as Error(string) revert data
func NewRevertError(reason string) *RevertError {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)
	return &RevertError{Reason: reason, Data: data}
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int {
	return 3
}

func (e *RevertError) ErrorData() interface{} {
	return hexutil.Encode(e.Data)
}
