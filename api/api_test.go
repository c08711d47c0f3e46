package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/metrics"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/ppelicano/laokas-smart-contract/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	owner = address.Uint160ToString(util.Uint160{0x0A})
	alice = address.Uint160ToString(util.Uint160{0xA1})
	dai   = common.MustSymbol("DAI")
)

const apiKey = "secret"

func newTestServer(t *testing.T) *Server {
	st := storage.NewMemoryStore()
	reg := prometheus.NewRegistry()

	ownerHash, err := address.StringToUint160(owner)
	require.NoError(t, err)
	aliceHash, err := address.StringToUint160(alice)
	require.NoError(t, err)

	e, err := recruitment.New(recruitment.Prm{
		Logger:  zaptest.NewLogger(t),
		Store:   st,
		Owner:   ownerHash,
		Name:    "recruitment",
		Metrics: metrics.New(reg),
	})
	require.NoError(t, err)

	tok := token.New(st, dai, 18)
	require.NoError(t, tok.Mint(aliceHash, common.Units(1_000_000, 18)))

	return New(Prm{
		Logger:   zaptest.NewLogger(t),
		Engine:   e,
		APIKey:   apiKey,
		Gatherer: reg,
		Tokens:   map[common.Symbol]*token.Token{dai: tok},
	})
}

// do sends request and decodes JSON response into out if it is set.
func do(t *testing.T, s *Server, method, path, caller string, body any, out any) int {
	var rBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rBody = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rBody)
	req.Header.Set(headerAPIKey, apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set(headerCaller, caller)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorResponse struct {
	Error string `json:"error"`
}

func whitelistDAI(t *testing.T, s *Server) {
	code := do(t, s, http.MethodPost, "/assets", owner, map[string]any{"symbol": "DAI", "decimals": 18}, nil)
	require.Equal(t, http.StatusCreated, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	var res map[string]string
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "", nil, &res))
	require.Equal(t, "ok", res["status"])
}

func TestAPIKeyGuard(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/assets", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set(headerAPIKey, "wrong")
	resp, err = s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/assets", "", nil, nil))
}

func TestAssets(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"symbol": "DAI", "decimals": 18}

	var er errorResponse
	require.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/assets", alice, body, &er))
	require.NotEmpty(t, er.Error)

	require.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/assets", "", body, nil))
	require.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/assets", "NotAnAddress", body, nil))

	var a assetView
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/assets", owner, body, &a))
	require.Equal(t, dai, a.Symbol)
	require.Equal(t, 18, a.Decimals)
	require.Equal(t, "1000", a.InitialDeposit.String())
	require.Equal(t, "0x"+token.Hash(dai).StringLE(), a.Hash)

	require.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/assets", owner, body, nil))

	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/assets", owner,
		map[string]any{"symbol": "USDT", "decimals": 6}, nil))

	var list []assetView
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/assets", "", nil, &list))
	require.Equal(t, []assetView{a}, list)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/assets/DAI", "", nil, nil))
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/assets/USDT", "", nil, nil))
	require.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/assets/"+strings.Repeat("A", 40), "", nil, nil))
}

func TestDepositFlow(t *testing.T) {
	s := newTestServer(t)
	whitelistDAI(t, s)

	approve := func(amount string) {
		code := do(t, s, http.MethodPost, "/sandbox/tokens/DAI/approve", alice, map[string]any{"amount": amount}, nil)
		require.Equal(t, http.StatusOK, code)
	}

	approve("1000")

	var tr trancheView
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/deposits/initial", alice,
		map[string]any{"symbol": "DAI", "month1": 50, "month2": 20}, &tr))
	require.Zero(t, tr.Index)
	require.Equal(t, [3]int64{50, 20, 30}, tr.Percentages)
	require.Equal(t, "1000", tr.Initial.String())
	require.Equal(t, "staged", tr.State)

	approve("24000")

	var acc accountView
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/deposits/final", alice,
		map[string]any{"symbol": "DAI", "amount": "24000", "index": 0}, &acc))
	require.Equal(t, alice, acc.Participant)
	require.Equal(t, "25000", acc.Balance.String())

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/accounts/"+alice+"/DAI/refunds/0", "", nil, &tr))
	require.Equal(t, "25000", tr.Funded.String())
	require.Equal(t, "settled", tr.State)
	require.NotNil(t, tr.Plan)
	require.Equal(t, []string{"12500", "5000", "7500"},
		[]string{tr.Plan[0].String(), tr.Plan[1].String(), tr.Plan[2].String()})

	var trs []trancheView
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/accounts/"+alice+"/DAI/refunds", "", nil, &trs))
	require.Len(t, trs, 1)
	require.Nil(t, trs[0].Plan)

	withdrawal := map[string]any{"participant": alice, "symbol": "DAI", "amount": "10000"}
	require.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/withdrawals", alice, withdrawal, nil))

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/withdrawals", owner, withdrawal, &acc))
	require.Equal(t, "15000", acc.Balance.String())

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/accounts/"+alice+"/DAI", "", nil, &acc))
	require.Equal(t, "15000", acc.Balance.String())

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/sandbox/tokens/DAI/balances/"+owner, "", nil, &acc))
	require.True(t, decimal.NewFromInt(10000).Equal(acc.Balance))

	require.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodPost, "/withdrawals", owner,
		map[string]any{"participant": alice, "symbol": "DAI", "amount": "15001"}, nil))
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	whitelistDAI(t, s)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid schedule", http.MethodPost, "/deposits/initial",
			map[string]any{"symbol": "DAI", "month1": 60, "month2": 50}, http.StatusBadRequest},
		{"no allowance", http.MethodPost, "/deposits/initial",
			map[string]any{"symbol": "DAI", "month1": 30, "month2": 30}, http.StatusUnprocessableEntity},
		{"unknown asset", http.MethodPost, "/deposits/initial",
			map[string]any{"symbol": "USDT", "month1": 30, "month2": 30}, http.StatusNotFound},
		{"fractional amount", http.MethodPost, "/deposits/final",
			map[string]any{"symbol": "DAI", "amount": "0.0000000000000000001", "index": 0}, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/deposits/final",
			map[string]any{"symbol": "DAI", "amount": "0", "index": 0}, http.StatusBadRequest},
		{"unknown tranche", http.MethodGet, "/accounts/" + alice + "/DAI/refunds/0", nil, http.StatusUnprocessableEntity},
		{"invalid index", http.MethodGet, "/accounts/" + alice + "/DAI/refunds/x", nil, http.StatusBadRequest},
		{"invalid address", http.MethodGet, "/accounts/x/DAI", nil, http.StatusBadRequest},
		{"invalid body", http.MethodPost, "/deposits/initial", "[", http.StatusBadRequest},
		{"unknown sandbox token", http.MethodGet, "/sandbox/tokens/USDT/balances/" + alice, nil, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var er errorResponse
			require.Equal(t, tc.status, do(t, s, tc.method, tc.path, alice, tc.body, &er))
			require.NotEmpty(t, er.Error)
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	whitelistDAI(t, s)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(b), `recruitment_operations_total{method="Whitelist",result="success"} 1`)
}
