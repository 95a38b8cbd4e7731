package chain

const (
	// UnitWei is the smallest denomination of ether.
	UnitWei = "wei"
	// UnitMutez is the smallest denomination of tez. 1 ꜩ = 1,000,000 µꜩ.
	UnitMutez = "µꜩ"
)

// ContractSource is the source text of a contract plus the optional name of the contract to
// select when the source defines more than one.
type ContractSource struct {
	Code     string `json:"code"`
	Contract string `json:"contract,omitempty"`
}

// DeployInput describes a deployment. Parameters are the ordered constructor arguments on
// Ethereum; on Tezos the first parameter is the initial storage.
type DeployInput struct {
	ContractSource

	Parameters []any `json:"parameters,omitempty"`
}

// SendInput describes a state changing invocation of a deployed contract. The source is only
// needed by chains which require the contract interface locally (Ethereum).
type SendInput struct {
	ContractSource

	Address    string `json:"address"`
	Entrypoint string `json:"entrypoint"`
	Parameters []any  `json:"parameters,omitempty"`
}

// CallInput describes a read-only invocation. It has the same shape as SendInput.
type CallInput = SendInput

// Balance is a native balance expressed as a decimal integer string in Unit.
type Balance struct {
	Balance string `json:"balance"`
	Unit    string `json:"unit"`
}

// DeployReceipt is the outcome of a successful deployment.
type DeployReceipt struct {
	Address string `json:"address"`
	TxHash  string `json:"txHash"`
	GasUsed string `json:"gasUsed"`
}

// SendReceipt is the outcome of a successful state changing invocation.
type SendReceipt struct {
	TxHash  string `json:"txHash"`
	GasUsed string `json:"gasUsed"`
}

// ContractInfo is the chain-agnostic description of a compiled contract.
//
// Functions and Events are sorted by name. Constructor inputs keep their declaration order.
type ContractInfo struct {
	Constructor ConstructorInfo `json:"constructor"`
	Functions   []FunctionInfo  `json:"functions"`
	Events      []EventInfo     `json:"events"`
}

// ConstructorInfo lists the types of the constructor parameters.
type ConstructorInfo struct {
	Input []string `json:"input"`
}

// Param is a named, typed parameter.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FunctionInfo describes a callable function.
type FunctionInfo struct {
	Name   string   `json:"name"`
	Input  []Param  `json:"input"`
	Output []string `json:"output"`
}

// EventParam is an event parameter with its indexed flag.
type EventParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
}

// EventInfo describes an event.
type EventInfo struct {
	Name  string       `json:"name"`
	Input []EventParam `json:"input"`
}
