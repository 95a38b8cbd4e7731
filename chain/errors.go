package chain

import "errors"

var (
	// ErrUnrecognizedProfile is returned when a value matches none of the supported profile variants.
	ErrUnrecognizedProfile = errors.New("unrecognized profile")

	// ErrCompilation is returned when a contract source cannot be compiled into bytecode.
	ErrCompilation = errors.New("compilation error")
	// ErrScriptParse is returned when a Michelson source cannot be parsed into a script.
	ErrScriptParse = errors.New("can not parse Michelson script")
	// ErrAmbiguousContractSelection is returned when the source defines several contracts and
	// none was named.
	ErrAmbiguousContractSelection = errors.New("ambiguous contract selection")
	// ErrContractNotFound is returned when the named contract is absent from the compilation unit.
	ErrContractNotFound = errors.New("contract not found")

	// ErrTransactionHashMismatch is returned when the locally computed hash differs from the hash
	// reported by the network.
	ErrTransactionHashMismatch = errors.New("transaction hash mismatch")
	// ErrMissingContractAddress is returned when a deployment receipt carries no contract address.
	ErrMissingContractAddress = errors.New("missing contract address")

	// ErrEntrypointNotFound is returned when the contract exposes no callable entrypoint with the
	// requested name.
	ErrEntrypointNotFound = errors.New("entrypoint not found")
	// ErrViewNotFound is returned when the contract exposes no view with the requested name.
	ErrViewNotFound = errors.New("view not found")
	// ErrInvalidArgument is returned when a parameter cannot be converted to the declared type.
	ErrInvalidArgument = errors.New("invalid argument")
)
