package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/trilitech/tzgo/contract"
	"github.com/trilitech/tzgo/micheline"
	"github.com/trilitech/tzgo/rpc"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/michelson"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/provider/rpcclient"
)

// Call executes a view of the contract at in.Address without injecting anything. Off-chain
// views declared in the TZIP-16 metadata of the contract take precedence over on-chain views.
func (p *Provider) Call(ctx context.Context, in chain.CallInput) (string, error) {
	addr, _, err := tezos.ParseAddress(in.Address)
	if err != nil {
		return "", err
	}
	name := in.Entrypoint
	if name == "" {
		name = "default"
	}

	script, err := p.client.GetContractScript(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("failed to get script of %s: %w", addr, err)
	}

	view, ok, err := p.findStorageView(ctx, script, name)
	if err != nil {
		return "", err
	}
	if ok {
		p.lggr.Debugw("Executing off-chain view", "address", addr, "view", name)
		return p.runStorageView(ctx, script, name, view, in.Parameters)
	}

	if onchain, ok := michelson.OnchainView(script.Code, name); ok {
		p.lggr.Debugw("Executing on-chain view", "address", addr, "view", name)
		return p.runOnchainView(ctx, addr, name, onchain, in.Parameters)
	}

	return "", fmt.Errorf("%w: %q on %s", chain.ErrViewNotFound, name, addr)
}

// findStorageView looks name up in the metadata of the contract. A contract without metadata
// simply has no off-chain view.
func (p *Provider) findStorageView(
	ctx context.Context, script *micheline.Script, name string,
) (contract.Tz16StorageView, bool, error) {
	bigMap, ok, err := metadataBigMap(script)
	if err != nil || !ok {
		return contract.Tz16StorageView{}, false, err
	}
	uri, ok, err := p.readMetadataKey(ctx, bigMap, "")
	if err != nil || !ok {
		return contract.Tz16StorageView{}, false, err
	}

	doc, err := p.resolveMetadata(ctx, bigMap, uri)
	if err != nil {
		return contract.Tz16StorageView{}, false, fmt.Errorf("failed to resolve contract metadata %s: %w", uri, err)
	}
	var md contract.Tz16
	if err = json.Unmarshal(doc, &md); err != nil {
		return contract.Tz16StorageView{}, false, fmt.Errorf("invalid contract metadata %s: %w", uri, err)
	}

	for _, v := range md.Views {
		if v.Name != name {
			continue
		}
		for _, impl := range v.Implementations {
			if impl.Storage != nil {
				return *impl.Storage, true, nil
			}
		}
	}

	return contract.Tz16StorageView{}, false, nil
}

// metadataBigMap returns the id of the %metadata big map of a contract storage.
func metadataBigMap(script *micheline.Script) (int64, bool, error) {
	storageType, err := michelson.Section(script.Code, micheline.K_STORAGE)
	if err != nil {
		return 0, false, err
	}
	id, ok := michelson.FindAnnotated(storageType, script.Storage, "metadata")
	if !ok || id.Type != micheline.PrimInt || id.Int == nil || !id.Int.IsInt64() {
		return 0, false, nil
	}

	return id.Int.Int64(), true, nil
}

// readMetadataKey reads a bytes value of a metadata big map as text.
func (p *Provider) readMetadataKey(ctx context.Context, bigMap int64, key string) (string, bool, error) {
	v, err := p.client.GetBigmapValue(ctx, bigMap, michelson.ExprHash(micheline.NewString(key)), rpc.Head)
	if rpcclient.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read metadata key %q of big map %d: %w", key, bigMap, err)
	}
	if v.Type != micheline.PrimBytes {
		return "", false, fmt.Errorf("metadata key %q of big map %d is not bytes: %s", key, bigMap, michelson.Format(v))
	}

	return string(v.Bytes), true, nil
}

// resolveMetadata follows a TZIP-16 metadata URI and returns the document it designates.
func (p *Provider) resolveMetadata(ctx context.Context, bigMap int64, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "tezos-storage:"):
		return p.resolveStorageURI(ctx, bigMap, strings.TrimPrefix(uri, "tezos-storage:"))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return p.client.Fetch(ctx, uri)
	case strings.HasPrefix(uri, "ipfs://"):
		return p.client.Fetch(ctx, p.ipfsGateway+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "sha256://"):
		return p.resolveHashedURI(ctx, bigMap, strings.TrimPrefix(uri, "sha256://"))
	default:
		return nil, fmt.Errorf("unsupported metadata URI %q", uri)
	}
}

// resolveStorageURI reads a key of the metadata big map, either of the same contract
// (tezos-storage:key) or of another one (tezos-storage://KT1.../key).
func (p *Provider) resolveStorageURI(ctx context.Context, bigMap int64, rest string) ([]byte, error) {
	if remote, ok := strings.CutPrefix(rest, "//"); ok {
		host, path, _ := strings.Cut(remote, "/")
		address, _, _ := strings.Cut(host, ".")
		addr, _, err := tezos.ParseAddress(address)
		if err != nil {
			return nil, err
		}
		script, err := p.client.GetContractScript(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to get script of %s: %w", addr, err)
		}
		id, ok, err := metadataBigMap(script)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("contract %s has no metadata big map", addr)
		}
		bigMap, rest = id, path
	}

	key, err := url.PathUnescape(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata key %q: %w", rest, err)
	}
	doc, ok, err := p.readMetadataKey(ctx, bigMap, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("metadata key %q not found in big map %d", key, bigMap)
	}

	return []byte(doc), nil
}

// resolveHashedURI resolves sha256://0x<hash>/<escaped uri> and checks the document hash.
func (p *Provider) resolveHashedURI(ctx context.Context, bigMap int64, rest string) ([]byte, error) {
	digest, inner, ok := strings.Cut(rest, "/")
	if !ok || !strings.HasPrefix(digest, "0x") {
		return nil, fmt.Errorf("invalid sha256 URI %q", rest)
	}
	want, err := hex.DecodeString(strings.TrimPrefix(digest, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid sha256 digest %q: %w", digest, err)
	}
	inner, err = url.PathUnescape(inner)
	if err != nil {
		return nil, fmt.Errorf("invalid sha256 URI target %q: %w", inner, err)
	}

	doc, err := p.resolveMetadata(ctx, bigMap, inner)
	if err != nil {
		return nil, err
	}
	if got := sha256.Sum256(doc); !bytes.Equal(got[:], want) {
		return nil, fmt.Errorf("metadata hash mismatch: expected %x, got %x", want, got)
	}

	return doc, nil
}

// runStorageView runs a michelsonStorageView through run_code, wrapped in a script whose
// storage receives the result of the view. The instructions of the view are spliced into the
// wrapper so that it runs them exactly once.
func (p *Provider) runStorageView(
	ctx context.Context, script *micheline.Script, name string, view contract.Tz16StorageView, params []any,
) (string, error) {
	storageType, err := michelson.Section(script.Code, micheline.K_STORAGE)
	if err != nil {
		return "", err
	}

	code := []micheline.Prim{micheline.NewPrim(micheline.I_CAR)}
	paramType, arg := micheline.NewPrim(micheline.T_UNIT), micheline.NewPrim(micheline.D_UNIT)
	if view.ParamType.IsValid() {
		paramType = view.ParamType
		if arg, err = michelson.EncodeParameters(paramType, params); err != nil {
			return "", fmt.Errorf("failed to encode parameters of view %q: %w", name, err)
		}
	} else {
		if len(params) > 0 {
			return "", fmt.Errorf("%w: view %q takes no parameter", chain.ErrInvalidArgument, name)
		}
		// Parameterless views only expect the storage on the stack.
		code = append(code, micheline.NewPrim(micheline.I_CDR))
	}
	if view.Code.Type == micheline.PrimSequence {
		code = append(code, view.Code.Args...)
	} else {
		code = append(code, view.Code)
	}
	code = append(code,
		micheline.NewPrim(micheline.I_SOME),
		micheline.NewCode(micheline.I_NIL, micheline.NewPrim(micheline.T_OPERATION)),
		micheline.NewPrim(micheline.I_PAIR),
	)

	if err = p.init(ctx); err != nil {
		return "", err
	}

	var res rpc.RunCodeResponse
	err = p.client.RunCode(ctx, rpc.Head, rpc.RunCodeRequest{
		ChainId: p.client.ChainId,
		Script: micheline.Code{
			Param:   micheline.NewCode(micheline.K_PARAMETER, micheline.NewPairType(paramType, storageType)),
			Storage: micheline.NewCode(micheline.K_STORAGE, micheline.NewOptType(view.ReturnType)),
			Code:    micheline.NewCode(micheline.K_CODE, micheline.NewSeq(code...)),
		},
		Storage: micheline.NewOption(),
		Input:   micheline.NewPair(arg, script.Storage),
	}, &res)
	if err != nil {
		return "", fmt.Errorf("failed to run view %q: %w", name, err)
	}
	if res.Storage.OpCode != micheline.D_SOME || len(res.Storage.Args) != 1 {
		return "", fmt.Errorf("view %q returned no value: %s", name, michelson.Format(res.Storage))
	}

	return viewResult(res.Storage.Args[0]), nil
}

// runOnchainView executes a `view` declared in the script of the contract.
func (p *Provider) runOnchainView(
	ctx context.Context, addr tz.Address, name string, view micheline.Prim, params []any,
) (string, error) {
	arg, err := michelson.EncodeParameters(view.Args[1], params)
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters of view %q: %w", name, err)
	}
	if err = p.init(ctx); err != nil {
		return "", err
	}

	var res rpc.RunViewResponse
	err = p.client.RunView(ctx, rpc.Head, rpc.RunViewRequest{
		Contract:     addr,
		View:         name,
		Input:        arg,
		ChainId:      p.client.ChainId,
		Source:       addr,
		Payer:        addr,
		Mode:         "Readable",
		UnlimitedGas: true,
	}, &res)
	if err != nil {
		return "", fmt.Errorf("failed to run view %q: %w", name, err)
	}

	return viewResult(res.Data), nil
}

// viewResult renders a view value. Bytes holding printable UTF-8 text are returned as that
// text, other values as their Michelson display form.
func viewResult(v micheline.Prim) string {
	if v.Type == micheline.PrimBytes && len(v.Bytes) > 0 && isPrintable(v.Bytes) {
		return string(v.Bytes)
	}

	return michelson.Display(v)
}

func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
