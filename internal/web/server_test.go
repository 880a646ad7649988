package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/metrics"
	"github.com/elys-network/yieldzap/internal/simulations"
	"github.com/elys-network/yieldzap/internal/state"
	"github.com/elys-network/yieldzap/internal/types"
	"github.com/elys-network/yieldzap/internal/web"
)

const user ledger.Address = "GUSERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type fixture struct {
	server  *web.WebServer
	sandbox *simulations.Sandbox
	journal *state.MemoryJournal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	journal := state.NewMemoryJournal()
	m := metrics.NewMetrics("")
	sb, err := simulations.NewLocalnetSandbox(ledger.WithSink(journal), ledger.WithSink(m), ledger.WithObserver(m))
	require.NoError(t, err)

	server := web.NewWebServer(web.Options{
		Journal: journal,
		Metrics: m.Handler(),
		Quoters: map[types.Environment]web.Quoter{types.Localnet: sb.Client},
	})
	return fixture{server: server, sandbox: sb, journal: journal}
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestWebServer_Health(t *testing.T) {
	f := newFixture(t)
	rec, body := get(t, f.server.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	degraded := web.NewWebServer(web.Options{Health: func(context.Context) error { return errors.New("db down") }})
	rec, body = get(t, degraded.Handler(), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEGRADED", body["status"])
}

func TestWebServer_Networks(t *testing.T) {
	f := newFixture(t)
	h := f.server.Handler()

	rec, body := get(t, h, "/api/networks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, len(types.Environments), body["count"])

	rec, body = get(t, h, "/api/networks/localnet")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "localnet", body["environment"])

	rec, _ = get(t, h, "/api/networks/mainnet")
	assert.Equal(t, http.StatusConflict, rec.Code, "mainnet has no published aggregator")

	rec, _ = get(t, h, "/api/networks/devnet")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebServer_AvailableVaults(t *testing.T) {
	f := newFixture(t)
	d := f.sandbox.Deployment

	rec, body := get(t, f.server.Handler(), "/api/networks/localnet/vaults?asset="+d.Network.StableAsset.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		[]interface{}{d.Vaults.StableVault.String(), d.Vaults.MultiAssetVault.String()},
		body["vaults"])

	rec, _ = get(t, f.server.Handler(), "/api/networks/localnet/vaults")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebServer_Quote(t *testing.T) {
	f := newFixture(t)
	net := f.sandbox.Deployment.Network
	h := f.server.Handler()

	rec, body := get(t, h, "/api/networks/localnet/quote?from="+net.NativeAsset.String()+"&to="+net.StableAsset.String()+"&amount=1000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "950", body["amount_out"])

	rec, _ = get(t, h, "/api/networks/localnet/quote?from="+net.NativeAsset.String()+"&to="+net.StableAsset.String()+"&amount=-5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, h, "/api/networks/futurenet/quote?from=A&to=B&amount=1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebServer_Receipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	net, vaults := f.sandbox.Deployment.Network, f.sandbox.Deployment.Vaults
	h := f.server.Handler()

	require.NoError(t, f.sandbox.Fund(net.StableAsset, user, sdkmath.NewInt(1000)))
	_, err := f.sandbox.Zap(ctx, types.ZapParams{
		Caller: user, FromAsset: net.StableAsset, AmountIn: sdkmath.NewInt(1000),
		ToAsset: net.StableAsset, Vault: vaults.StableVault, MinAmountOut: sdkmath.NewInt(0),
	})
	require.NoError(t, err)

	rec, body := get(t, h, "/api/receipts?limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	receipts := body["receipts"].([]interface{})
	id := receipts[0].(map[string]interface{})["invocation_id"].(string)

	rec, body = get(t, h, "/api/receipts/"+id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "500", body["vault_shares"])

	rec, _ = get(t, h, "/api/receipts/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = get(t, h, "/api/receipts/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, _ = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yieldzap_zap_completed_total")
}

func TestWebServer_JournalDisabled(t *testing.T) {
	server := web.NewWebServer(web.Options{})
	rec, _ := get(t, server.Handler(), "/api/receipts")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = get(t, server.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
