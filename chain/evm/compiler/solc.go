package compiler

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

// sourceName is the virtual file name the source is compiled under.
const sourceName = "contract.sol"

var (
	pragmaRegex  = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)
	versionRegex = regexp.MustCompile(`Version:\s*(\d+\.\d+\.\d+)`)
)

// runFunc executes the compiler binary with stdin and returns its stdout.
type runFunc func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// Solc compiles sources with the solc binary using its standard JSON interface.
type Solc struct {
	path string
	lggr logger.Logger
	run  runFunc

	versionOnce sync.Once
	version     *semver.Version
	versionErr  error
}

// SolcOption configures a Solc compiler.
type SolcOption func(*Solc)

// WithSolcPath sets the path of the solc binary. Defaults to "solc" looked up in PATH.
func WithSolcPath(path string) SolcOption {
	return func(s *Solc) {
		s.path = path
	}
}

// WithSolcLogger sets the logger of the compiler.
func WithSolcLogger(lggr logger.Logger) SolcOption {
	return func(s *Solc) {
		s.lggr = lggr
	}
}

// NewSolc creates a Solc compiler.
func NewSolc(opts ...SolcOption) *Solc {
	s := &Solc{
		path: "solc",
		lggr: logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.run == nil {
		s.run = s.exec
	}

	return s
}

type standardInput struct {
	Language string                    `json:"language"`
	Sources  map[string]standardSource `json:"sources"`
	Settings standardSettings          `json:"settings"`
}

type standardSource struct {
	Content string `json:"content"`
}

type standardSettings struct {
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type standardOutput struct {
	Errors    []standardError                        `json:"errors"`
	Contracts map[string]map[string]standardContract `json:"contracts"`
}

type standardError struct {
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

type standardContract struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

// Compile compiles the source and returns one artifact per contract it defines.
func (s *Solc) Compile(ctx context.Context, code string) ([]Artifact, error) {
	if err := s.checkPragma(ctx, code); err != nil {
		return nil, err
	}

	input, err := json.Marshal(standardInput{
		Language: "Solidity",
		Sources:  map[string]standardSource{sourceName: {Content: code}},
		Settings: standardSettings{
			OutputSelection: map[string]map[string][]string{
				"*": {"*": {"abi", "evm.bytecode.object"}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode compiler input: %w", err)
	}

	out, err := s.run(ctx, input, "--standard-json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrCompilation, err)
	}

	return parseStandardOutput(out)
}

// parseStandardOutput converts the solc standard JSON output into artifacts sorted by name.
func parseStandardOutput(out []byte) ([]Artifact, error) {
	var output standardOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, fmt.Errorf("%w: failed to decode compiler output: %w", chain.ErrCompilation, err)
	}

	var msgs []string
	for _, e := range output.Errors {
		if e.Severity != "error" {
			continue
		}
		msg := strings.TrimSpace(e.FormattedMessage)
		if msg == "" {
			msg = e.Message
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("%w: %s", chain.ErrCompilation, strings.Join(msgs, "\n"))
	}

	contracts := output.Contracts[sourceName]
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	slices.Sort(names)

	artifacts := make([]Artifact, 0, len(names))
	for _, name := range names {
		c := contracts[name]

		parsed, err := abi.JSON(bytes.NewReader(c.ABI))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ABI for contract %s: %w", chain.ErrCompilation, name, err)
		}

		bytecode, err := hex.DecodeString(strings.TrimPrefix(c.EVM.Bytecode.Object, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid bytecode for contract %s (unlinked libraries are not supported): %w",
				chain.ErrCompilation, name, err,
			)
		}

		artifacts = append(artifacts, Artifact{
			Name:     name,
			ABI:      parsed,
			RawABI:   c.ABI,
			Bytecode: bytecode,
		})
	}

	return artifacts, nil
}

// checkPragma fails fast when the source pins a compiler version range that the installed solc
// does not satisfy. Ranges the semver library cannot parse are left to solc itself.
func (s *Solc) checkPragma(ctx context.Context, code string) error {
	m := pragmaRegex.FindStringSubmatch(code)
	if m == nil {
		return nil
	}

	constraint, err := semver.NewConstraint(strings.TrimSpace(m[1]))
	if err != nil {
		s.lggr.Debugw("Skipping pragma check", "pragma", m[1], "err", err)
		return nil
	}

	version, err := s.Version(ctx)
	if err != nil {
		s.lggr.Debugw("Skipping pragma check, compiler version unknown", "err", err)
		return nil
	}

	if !constraint.Check(version) {
		return fmt.Errorf("%w: source requires solidity %s, installed compiler is %s",
			chain.ErrCompilation, strings.TrimSpace(m[1]), version,
		)
	}

	return nil
}

// Version returns the version of the solc binary. The result is computed once.
func (s *Solc) Version(ctx context.Context) (*semver.Version, error) {
	s.versionOnce.Do(func() {
		out, err := s.run(ctx, nil, "--version")
		if err != nil {
			s.versionErr = err
			return
		}

		m := versionRegex.FindSubmatch(out)
		if m == nil {
			s.versionErr = errors.New("unable to find version in solc output")
			return
		}

		s.version, s.versionErr = semver.NewVersion(string(m[1]))
	})

	return s.version, s.versionErr
}

func (s *Solc) exec(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.path, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", s.path, strings.Join(args, " "), err, msg)
		}

		return nil, fmt.Errorf("%s %s: %w", s.path, strings.Join(args, " "), err)
	}

	return out, nil
}
