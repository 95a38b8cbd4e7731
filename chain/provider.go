package chain

import "context"

// Provider is the uniform contract that every chain implementation satisfies.
//
// Deploy and Send block until the submitted transaction or operation has been included in a
// block. Abandoning the call through ctx does not stop the network from including it.
type Provider interface {
	// GetBalance returns the native balance of the address in the chain's smallest unit.
	GetBalance(ctx context.Context, address string) (Balance, error)
	// Deploy compiles or parses the source and deploys it, signing with privateKey.
	Deploy(ctx context.Context, in DeployInput, privateKey string) (DeployReceipt, error)
	// Send invokes a state changing entrypoint of a deployed contract, signing with privateKey.
	Send(ctx context.Context, in SendInput, privateKey string) (SendReceipt, error)
	// Call performs a read-only invocation and returns the result value.
	Call(ctx context.Context, in CallInput) (string, error)
	// Blockchain returns the blockchain tag the provider serves.
	Blockchain() Blockchain
}

// Introspector is implemented by providers that can describe a compiled contract without
// network access.
type Introspector interface {
	GetInfo(ctx context.Context, src ContractSource) (ContractInfo, error)
}
