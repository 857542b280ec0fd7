package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gagliardetto/solana-go"
)

type JobKind string

const (
	JobLog         JobKind = "log"
	JobTransaction JobKind = "transaction"
)

// Job is one discovered unit of raw on-chain activity awaiting decode. EVM
// networks produce log jobs, Solana networks produce transaction jobs. A job
// may only be handed back to the client that produced it.
type Job struct {
	Kind      JobKind
	Log       *types.Log
	Signature solana.Signature
}

func LogJob(log *types.Log) Job {
	return Job{Kind: JobLog, Log: log}
}

func TransactionJob(signature solana.Signature) Job {
	return Job{Kind: JobTransaction, Signature: signature}
}

func (j Job) String() string {
	switch j.Kind {
	case JobLog:
		return fmt.Sprintf("log(%s, %d)", j.Log.TxHash, j.Log.Index)
	case JobTransaction:
		return fmt.Sprintf("transaction(%s)", j.Signature)
	default:
		return "unknown"
	}
}
