package provider

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trilitech/tzgo/codec"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

const (
	testSecretKey = "edsk3QoqBuvdamxouPhin7swCvkQNgq4jP5KZPbwWNnwdZpSpJiEbq"
	testPublicKey = "edpkvGfYw3LyB1UcCahKQk4rF2tvbMUk8GFiTuMjL75uGXrpvKXhjn"
	testAddress   = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"

	testContract      = "KT1HRUjufJWHNPTYrTAdJggW3hoQi3YnTzXM"
	testOtherContract = "KT18amZmM5W7qDWVt2pH6uj7sCEd3kbzLrHT"
	testBranch        = "BKiiym5cWWUEL6xzjK7FtMdP3RzHXYvGYGqmRLj5KvfhsCcaAQb"
	testChainID       = "NetXdQprcVkpaWU"
	testProtocol      = "PtParisBxoLz5gzMmn3d9WBQNoPSZakgnkMC2VNuQ3KXfUtUQeZ"

	// Script expression hashes of the packed strings "" and "here".
	emptyKeyHash = "expru5X1yxJG6ezR2uHMotwMLNmSzQyh5t1vUnhjx4cS6Pv9qE1Sdo"
	hereKeyHash  = "expruaHzyjwFcmFKHqR49qdxwJupAna6ygSKo2mFJQtqZQjid5t8GK"

	headPath      = "/chains/main/blocks/head"
	contractsPath = headPath + "/context/contracts/"
	accountPath   = headPath + "/context/raw/json/contracts/index/"
	bigMapsPath   = headPath + "/context/big_maps/"
	simulatePath  = headPath + "/helpers/scripts/simulate_operation"
	injectPath    = "/injection/operation"
	runCodePath   = headPath + "/helpers/scripts/run_code"
	runViewPath   = headPath + "/helpers/scripts/run_script_view"

	// opHashPlaceholder is replaced by the hash of the last injected operation in responses.
	opHashPlaceholder = "$OPHASH"
)

// fakeNode is a Tezos node serving canned JSON responses and recording request bodies. Routes
// are keyed by "METHOD path" and unknown routes answer 404. Injected operations must carry a
// valid signature of testSecretKey and are recorded in binary form.
type fakeNode struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]fakeResponse
	requests map[string][]json.RawMessage
	injected [][]byte
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()

	n := &fakeNode{
		t:        t,
		routes:   map[string]fakeResponse{},
		requests: map[string][]json.RawMessage{},
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)

	n.set("GET /chains/main/chain_id", `"`+testChainID+`"`)
	n.set("GET /version", `{"network_version":{"chain_name":"TEZOS_MAINNET"}}`)
	n.set("GET "+headPath+"/metadata", `{"protocol":"`+testProtocol+`","next_protocol":"`+testProtocol+`",
		"level_info":{"level":12}}`)
	n.set("GET "+headPath+"/context/constants", `{"hard_gas_limit_per_operation":"1040000",
		"hard_gas_limit_per_block":"2600000","hard_storage_limit_per_operation":"60000","cost_per_byte":"250",
		"origination_size":257,"minimal_block_delay":"5","max_operations_time_to_live":240}`)
	n.set("GET "+headPath+"/header", `{"hash":"`+testBranch+`","chain_id":"`+testChainID+`",
		"level":12,"protocol":"`+testProtocol+`"}`)
	n.set("GET "+accountPath+testAddress, `{"balance":"2000000","counter":"41","manager":"`+testPublicKey+`"}`)

	return n
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	if len(bytes.TrimSpace(body)) > 0 {
		n.requests[key] = append(n.requests[key], bytes.TrimSpace(body))
	}
	resp, ok := n.routes[key]
	if !ok && key == "POST "+injectPath {
		resp, ok = n.inject(body)
	}
	if len(n.injected) > 0 {
		resp.body = strings.ReplaceAll(resp.body, opHashPlaceholder, opHash(n.injected[len(n.injected)-1]))
	}
	n.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if resp.status != 0 {
		w.WriteHeader(resp.status)
	}
	// tzgo decodes operation contents by peeking at a leading "kind" key, which requires
	// compact JSON.
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(resp.body)); err == nil {
		_, _ = w.Write(compact.Bytes())
		return
	}
	_, _ = io.WriteString(w, resp.body)
}

// inject checks the signature of an injected operation and answers with its hash.
func (n *fakeNode) inject(body []byte) (fakeResponse, bool) {
	var signedHex string
	if err := json.Unmarshal(body, &signedHex); err != nil {
		return fakeResponse{status: http.StatusBadRequest, body: `"invalid body"`}, true
	}
	signed, err := hex.DecodeString(signedHex)
	if err != nil || len(signed) <= 64 {
		return fakeResponse{status: http.StatusBadRequest, body: `"invalid operation"`}, true
	}

	unsigned, sig := signed[:len(signed)-64], signed[len(signed)-64:]
	digest := tz.Digest(append([]byte{0x03}, unsigned...))
	pk := tz.MustParseKey(testPublicKey)
	if err := pk.Verify(digest[:], tz.NewSignature(tz.SignatureTypeEd25519, sig)); err != nil {
		return fakeResponse{status: http.StatusBadRequest, body: `"invalid signature"`}, true
	}
	n.injected = append(n.injected, signed)

	return fakeResponse{body: `"` + opHash(signed) + `"`}, true
}

func opHash(signed []byte) string {
	h := tz.Digest(signed)

	return tz.NewOpHash(h[:]).String()
}

// set registers the body returned by route.
func (n *fakeNode) set(route, body string) {
	n.setStatus(route, 0, body)
}

func (n *fakeNode) setStatus(route string, status int, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[route] = fakeResponse{status: status, body: body}
}

// received decodes the request bodies sent to route.
func (n *fakeNode) received(route string, out any) int {
	n.t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	reqs := n.requests[route]
	if out != nil && len(reqs) > 0 {
		list := "[" + string(bytes.Join(reqs, []byte(","))) + "]"
		require.NoError(n.t, json.Unmarshal([]byte(list), out))
	}

	return len(reqs)
}

// lastInjected returns the hash and the decoded unsigned contents of the last injected operation.
func (n *fakeNode) lastInjected() (string, *codec.Op) {
	n.t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(n.t, n.injected, "no operation injected")
	signed := n.injected[len(n.injected)-1]
	op, err := codec.DecodeOp(signed[:len(signed)-64])
	require.NoError(n.t, err)

	return opHash(signed), op
}

func (n *fakeNode) provider(opts ...Option) *Provider {
	p, err := New(n.srv.URL, append([]Option{
		WithLogger(logger.Test(n.t)),
		WithPollInterval(5 * time.Millisecond),
	}, opts...)...)
	require.NoError(n.t, err)

	return p
}
