package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// rpcReceipt mirrors the eth_getTransactionReceipt result shape. Quantities
// arrive as 0x-hex strings.
type rpcReceipt struct {
	TransactionHash string   `json:"transactionHash"`
	BlockNumber     string   `json:"blockNumber"`
	GasUsed         string   `json:"gasUsed"`
	Status          string   `json:"status"`
	Logs            []rpcLog `json:"logs"`
}

type rpcLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

func (r rpcReceipt) succeeded() bool {
	return strings.EqualFold(r.Status, "0x1")
}

// notarizedLog finds the DocumentNotarized log emitted by the configured
// contract. Other contracts' logs in the same transaction are ignored.
func (r rpcReceipt) notarizedLog(contract string) (rpcLog, bool) {
	for _, log := range r.Logs {
		if !strings.EqualFold(log.Address, contract) {
			continue
		}
		if len(log.Topics) > 0 && strings.EqualFold(log.Topics[0], notarizedTopic) {
			return log, true
		}
	}
	return rpcLog{}, false
}

func parseHexQuantity(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	v, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hex quantity %q: %w", s, err)
	}
	return v, nil
}
