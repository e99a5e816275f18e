package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/config"
	"github.com/bitfsorg/libfund-go/fund"
	"github.com/bitfsorg/libfund-go/market"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// run executes fundctl against dir with the given extra flags.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--datadir", dir, "--password", "pw"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func runOffline(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	return run(t, dir, append([]string{"--offline"}, args...)...)
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runOffline(t, dir, args...)
	require.NoError(t, err, "fundctl %s", strings.Join(args, " "))
	return out
}

// newKey creates a keyring label and returns its account.
func newKey(t *testing.T, dir, label string, extra ...string) account.Account {
	t.Helper()
	out := mustRun(t, dir, append([]string{"keys", "new", label}, extra...)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	fields := strings.Fields(lines[len(lines)-1])
	require.Len(t, fields, 3)
	require.Equal(t, label, fields[0])
	acct, err := account.Parse(fields[1])
	require.NoError(t, err)
	return acct
}

// setup returns a data directory with a 100-share fund, manager locked,
// and the manager and alice labels.
func setup(t *testing.T) (dir string, manager, alice account.Account) {
	t.Helper()
	dir = t.TempDir()
	manager = newKey(t, dir, "manager", "--mnemonic", testMnemonic)
	alice = newKey(t, dir, "alice")
	out := mustRun(t, dir, "init", "--manager", "manager", "--shares", "100", "--lock")
	assert.Contains(t, out, "manager:         "+manager.String())
	return dir, manager, alice
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		decimals int32
		want     string
	}{
		{"12.5", 10, "125000000000"},
		{"0", 10, "0"},
		{"100", 0, "100"},
		{"0.0000000001", 10, "1"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			v, err := parseAmount(tc.in, tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Dec())
		})
	}

	for _, bad := range []string{"-1", "abc", "0.00000000001", "1e80"} {
		_, err := parseAmount(bad, 10)
		assert.ErrorIs(t, err, errInvalidAmount, bad)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "7.5", formatAmount(uint256.NewInt(75_000_000_000), 10))
	assert.Equal(t, "25", formatAmount(uint256.NewInt(250_000_000_000), 10))
	assert.Equal(t, "0", formatAmount(nil, 10))
	assert.Equal(t, "42", formatAmount(uint256.NewInt(42), 0))
}

func TestKeys(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "keys", "new", "first")
	assert.Contains(t, out, "mnemonic: ")
	assert.Contains(t, out, "m/44'/236'/2'/0/0")

	second := newKey(t, dir, "second")

	_, err := runOffline(t, dir, "keys", "new", "second")
	assert.Error(t, err)

	out = mustRun(t, dir, "keys", "show", "second")
	assert.Contains(t, out, second.String())

	out = mustRun(t, dir, "keys", "show")
	assert.Contains(t, out, "first ")
	assert.Contains(t, out, "second ")
	assert.Contains(t, out, "fund ")
	assert.Contains(t, out, "dividend-wallet ")

	_, err = run(t, dir, "--offline", "--password", "wrong", "keys", "show")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	dir, _, _ := setup(t)

	_, err := runOffline(t, dir, "init", "--manager", "manager", "--shares", "100")
	assert.ErrorIs(t, err, errAlreadyInitialized)

	cfg, err := config.LoadConfig(config.ConfigPath(dir))
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)

	out := mustRun(t, dir, "status")
	assert.Contains(t, out, "total shares:    100\n")
	assert.Contains(t, out, "funding:         0 (funded: false)")
	assert.Contains(t, out, "manager shares:  0 (locked)")
}

func TestCommandsRequireInit(t *testing.T) {
	_, err := runOffline(t, t.TempDir(), "status")
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestLifecycle(t *testing.T) {
	dir, manager, alice := setup(t)
	bob := account.Filled(0x0B)

	// Manager-only entry points are gated on funding.
	_, err := runOffline(t, dir, "issue-dividend", "--from", "manager", "10")
	assert.ErrorIs(t, err, fund.ErrMustBeFunded)

	out := mustRun(t, dir, "fund", "--from", "manager", "--value", "25")
	assert.Contains(t, out, "funded 25 of 100")
	assert.Contains(t, out, "fund.transfer from=- to="+manager.String()+" value=25")

	_, err = runOffline(t, dir, "fund", "--from", alice.String(), "--value", "76")
	assert.ErrorIs(t, err, fund.ErrFundingTooMuch)

	out = mustRun(t, dir, "fund", "--from", alice.String(), "--value", "75")
	assert.Contains(t, out, "funded 100 of 100")

	out = mustRun(t, dir, "issue-dividend", "--from", "manager", "10")
	assert.Contains(t, out, "fund.dividend.issued amount=10")

	out = mustRun(t, dir, "dividend", alice.String())
	assert.Contains(t, out, "pending: 7.5\n")

	out = mustRun(t, dir, "claim", "--from", "alice")
	assert.Contains(t, out, "claimed 7.5\n")
	assert.Contains(t, out, "fund.dividend.claimed user="+alice.String()+" amount=7.5")

	out = mustRun(t, dir, "dividend", alice.String())
	assert.Contains(t, out, "pending: 0\n")

	_, err = runOffline(t, dir, "transfer", "--from", "manager", alice.String(), "1")
	assert.ErrorIs(t, err, fund.ErrManagerSharesAreLocked)

	mustRun(t, dir, "approve", "--from", alice.String(), bob.String(), "5")
	out = mustRun(t, dir, "balance", alice.String(), "--spender", bob.String())
	assert.Contains(t, out, "balance: 75\n")
	assert.Contains(t, out, "allowance: 5\n")

	_, err = runOffline(t, dir, "transfer-from", "--from", bob.String(), alice.String(), bob.String(), "6")
	assert.ErrorIs(t, err, fund.ErrInsufficientAllowance)

	out = mustRun(t, dir, "transfer-from", "--from", bob.String(), alice.String(), bob.String(), "5")
	assert.Contains(t, out, "fund.transfer from="+alice.String()+" to="+bob.String()+" value=5")

	out = mustRun(t, dir, "balance", bob.String())
	assert.Contains(t, out, "balance: 5\n")

	out = mustRun(t, dir, "dividend", manager.String())
	assert.Contains(t, out, "pending: 2.5\n")

	out = mustRun(t, dir, "audit")
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "ok   conservation")

	out = mustRun(t, dir, "status")
	assert.Contains(t, out, "funding:         100 (funded: true)")
	assert.Contains(t, out, "manager shares:  25 (locked)")
	assert.Contains(t, out, "dividends:       1")
}

func TestManagerCallOffline(t *testing.T) {
	dir, _, alice := setup(t)
	mustRun(t, dir, "fund", "--from", "manager", "--value", "25")
	mustRun(t, dir, "fund", "--from", alice.String(), "--value", "75")

	path := writeEnvelope(t, market.BuyCompleteSet{MarketID: uint256.NewInt(7), Amount: uint256.NewInt(100)})

	_, err := runOffline(t, dir, "manager-call", "--from", alice.String(), path)
	assert.ErrorIs(t, err, fund.ErrOnlyManagerAllowed)

	_, err = runOffline(t, dir, "manager-call", "--from", "manager", path)
	assert.ErrorIs(t, err, fund.ErrCallRuntimeFailed)

	transfer := writeEnvelope(t, market.AssetTransfer{Dest: alice, Currency: market.Ztg(), Amount: uint256.NewInt(1)})
	_, err = runOffline(t, dir, "manager-call", "--from", "manager", transfer)
	assert.ErrorIs(t, err, market.ErrInvalidCall)
}

func TestManagerCallOnline(t *testing.T) {
	dir, _, alice := setup(t)
	mustRun(t, dir, "fund", "--from", "manager", "--value", "25")
	mustRun(t, dir, "fund", "--from", alice.String(), "--value", "75")

	node := newTestNode(t)
	call := market.BuyCompleteSet{MarketID: uint256.NewInt(7), Amount: uint256.NewInt(100)}
	path := writeEnvelope(t, call)

	out, err := run(t, dir, "--rpc-url", node.URL(), "manager-call", "--from", "manager", path)
	require.NoError(t, err)
	assert.Contains(t, out, "dispatched prediction_markets.buy_complete_set")

	dispatched := node.Dispatched()
	require.Len(t, dispatched, 1)
	decoded, err := market.Decode(dispatched[0])
	require.NoError(t, err)
	assert.Equal(t, call, decoded)

	// Dividends issued online carry the node's timestamp.
	_, err = run(t, dir, "--rpc-url", node.URL(), "issue-dividend", "--from", "manager", "1")
	require.NoError(t, err)
	out = mustRun(t, dir, "audit")
	assert.NotContains(t, out, "FAIL")
}

func TestMetricsOut(t *testing.T) {
	dir, _, alice := setup(t)
	mustRun(t, dir, "fund", "--from", "manager", "--value", "25")

	path := filepath.Join(t.TempDir(), "fund.prom")
	mustRun(t, dir, "--metrics-out", path, "fund", "--from", alice.String(), "--value", "75")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fund_calls_total{op="fund",outcome="ok"} 1`)
	assert.Contains(t, string(data), "fund_funding_amount 1e+12")
}

func writeEnvelope(t *testing.T, call market.Call) string {
	t.Helper()
	data, err := market.Encode(call)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "call.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// testNode is a JSON-RPC runtime node that accepts every call. Accounts
// missing from balances hold nothing.
type testNode struct {
	server *httptest.Server

	mu         sync.Mutex
	balances   map[string]string
	origins    []string
	dispatched []json.RawMessage
}

func newTestNode(t *testing.T) *testNode {
	n := &testNode{balances: make(map[string]string)}
	n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var result interface{}
		switch req.Method {
		case "runtime_timestamp":
			result = uint64(1_700_000_000_000)
		case "runtime_freeBalance":
			var who string
			_ = json.Unmarshal(req.Params[0], &who)
			n.mu.Lock()
			result = n.balances[who]
			n.mu.Unlock()
			if result == "" {
				result = "0"
			}
		case "runtime_dispatch":
			var origin string
			_ = json.Unmarshal(req.Params[0], &origin)
			n.mu.Lock()
			n.origins = append(n.origins, origin)
			n.dispatched = append(n.dispatched, req.Params[1])
			n.mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": req.ID, "result": result, "error": nil})
	}))
	t.Cleanup(n.server.Close)
	return n
}

func (n *testNode) URL() string { return n.server.URL }

func (n *testNode) setBalance(who account.Account, amount string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[who.String()] = amount
}

func (n *testNode) Dispatched() []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]json.RawMessage(nil), n.dispatched...)
}

func (n *testNode) Origins() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.origins...)
}

// fundAddress reads the fund's account from status.
func fundAddress(t *testing.T, dir string) account.Account {
	t.Helper()
	for _, line := range strings.Split(mustRun(t, dir, "status"), "\n") {
		if rest, ok := strings.CutPrefix(line, "fund:"); ok {
			acct, err := account.Parse(strings.TrimSpace(rest))
			require.NoError(t, err)
			return acct
		}
	}
	t.Fatal("status has no fund line")
	return account.Account{}
}

func TestFundOnline_CollectsConsideration(t *testing.T) {
	dir, _, alice := setup(t)
	fundAddr := fundAddress(t, dir)
	node := newTestNode(t)
	node.setBalance(alice, "1000000000000")

	out, err := run(t, dir, "--rpc-url", node.URL(), "fund", "--from", alice.String(), "--value", "75")
	require.NoError(t, err)
	assert.Contains(t, out, "funded 75 of 100")

	dispatched := node.Dispatched()
	require.Len(t, dispatched, 1)
	assert.Equal(t, []string{alice.String()}, node.Origins())
	decoded, err := market.Decode(dispatched[0])
	require.NoError(t, err)
	assert.Equal(t, market.AssetTransfer{
		Dest:     fundAddr,
		Currency: market.Ztg(),
		Amount:   uint256.NewInt(750_000_000_000),
	}, decoded)
}

func TestFundOnline_InsufficientBalance(t *testing.T) {
	dir, _, alice := setup(t)
	node := newTestNode(t)
	node.setBalance(alice, "100000000000")

	_, err := run(t, dir, "--rpc-url", node.URL(), "fund", "--from", alice.String(), "--value", "75")
	assert.ErrorIs(t, err, errInsufficientFunds)
	assert.Empty(t, node.Dispatched())

	out := mustRun(t, dir, "balance", alice.String())
	assert.Contains(t, out, "balance: 0\n")
	out = mustRun(t, dir, "status")
	assert.Contains(t, out, "funding:         0 (funded: false)")
}

func TestFundOnline_RefundsRejectedDeposit(t *testing.T) {
	dir, _, alice := setup(t)
	fundAddr := fundAddress(t, dir)
	node := newTestNode(t)
	node.setBalance(alice, "2000000000000")

	_, err := run(t, dir, "--rpc-url", node.URL(), "fund", "--from", alice.String(), "--value", "101")
	assert.ErrorIs(t, err, fund.ErrFundingTooMuch)

	dispatched := node.Dispatched()
	require.Len(t, dispatched, 2)
	assert.Equal(t, []string{alice.String(), fundAddr.String()}, node.Origins())
	refund, err := market.Decode(dispatched[1])
	require.NoError(t, err)
	assert.Equal(t, market.AssetTransfer{
		Dest:     alice,
		Currency: market.Ztg(),
		Amount:   uint256.NewInt(1_010_000_000_000),
	}, refund)
}

func TestClaim_ReportsPayouts(t *testing.T) {
	dir, _, alice := setup(t)
	mustRun(t, dir, "fund", "--from", "manager", "--value", "25")
	mustRun(t, dir, "fund", "--from", alice.String(), "--value", "75")
	mustRun(t, dir, "issue-dividend", "--from", "manager", "10")

	out := mustRun(t, dir, "claim", "--from", "alice")
	assert.Contains(t, out, "dividend wallet paid 7.5 in 1 payouts\n")

	out = mustRun(t, dir, "claim", "--from", "alice")
	assert.NotContains(t, out, "dividend wallet paid")
}
