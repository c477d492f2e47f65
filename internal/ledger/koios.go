package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// APIError Koios 返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("koios %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// KoiosConfig Koios 客户端配置
type KoiosConfig struct {
	BaseURL   string
	APIKey    string
	RateLimit float64 // 每秒请求数，0 表示不限速
	Burst     int
	Timeout   time.Duration
}

// KoiosClient 基于 Koios REST API 的 Provider
type KoiosClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = (*KoiosClient)(nil)

// NewKoiosClient 创建 Koios 客户端
func NewKoiosClient(cfg KoiosConfig, client *http.Client) *KoiosClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &KoiosClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (k *KoiosClient) do(ctx context.Context, method, path string, query url.Values, contentType string, body []byte, out interface{}) error {
	if err := k.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("koios rate limit: %w", err)
	}
	target := k.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build koios request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if k.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+k.apiKey)
	}

	start := time.Now()
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("koios %s: %w", path, err)
	}
	defer resp.Body.Close()
	logger.Debug("koios %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read koios response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode koios %s: %w", path, err)
	}
	return nil
}

func (k *KoiosClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return k.do(ctx, http.MethodPost, path, nil, "application/json", body, out)
}

// CurrentTime 取 /tip 的区块时间
func (k *KoiosClient) CurrentTime(ctx context.Context) (time.Time, error) {
	var tip []struct {
		BlockTime int64 `json:"block_time"`
	}
	if err := k.do(ctx, http.MethodGet, "/tip", nil, "", nil, &tip); err != nil {
		return time.Time{}, err
	}
	if len(tip) == 0 {
		return time.Time{}, fmt.Errorf("koios /tip: empty response")
	}
	return time.Unix(tip[0].BlockTime, 0).UTC(), nil
}

type koiosAsset struct {
	PolicyID  string `json:"policy_id"`
	AssetName string `json:"asset_name"`
	Quantity  string `json:"quantity"`
}

type koiosUTxO struct {
	TxHash      string  `json:"tx_hash"`
	TxIndex     uint32  `json:"tx_index"`
	Address     string  `json:"address"`
	Value       string  `json:"value"`
	DatumHash   *string `json:"datum_hash"`
	InlineDatum *struct {
		Bytes string `json:"bytes"`
	} `json:"inline_datum"`
	AssetList []koiosAsset `json:"asset_list"`
}

func (u koiosUTxO) toUTxO() (cardano.UTxO, error) {
	lovelace, err := strconv.ParseInt(u.Value, 10, 64)
	if err != nil {
		return cardano.UTxO{}, fmt.Errorf("utxo %s#%d value %q: %w", u.TxHash, u.TxIndex, u.Value, err)
	}
	out := cardano.UTxO{
		OutRef:  cardano.OutRef{TxHash: cardano.TxHash(u.TxHash), Index: u.TxIndex},
		Address: u.Address,
		Value:   cardano.NewValue(cardano.Lovelace(lovelace)),
	}
	for _, a := range u.AssetList {
		q, err := strconv.ParseInt(a.Quantity, 10, 64)
		if err != nil {
			return cardano.UTxO{}, fmt.Errorf("utxo %s#%d asset quantity %q: %w", u.TxHash, u.TxIndex, a.Quantity, err)
		}
		unit := cardano.ToUnit(cardano.PolicyID(a.PolicyID), cardano.AssetName(a.AssetName))
		out.Value = out.Value.WithAsset(unit, q)
	}
	if u.DatumHash != nil {
		out.DatumHash = *u.DatumHash
	}
	if u.InlineDatum != nil && u.InlineDatum.Bytes != "" {
		raw, err := hex.DecodeString(u.InlineDatum.Bytes)
		if err != nil {
			return cardano.UTxO{}, fmt.Errorf("utxo %s#%d inline datum: %w", u.TxHash, u.TxIndex, err)
		}
		out.Datum = raw
	}
	return out, nil
}

// OutputsAtAddress 查询 /address_utxos
func (k *KoiosClient) OutputsAtAddress(ctx context.Context, address string) ([]cardano.UTxO, error) {
	var rows []koiosUTxO
	payload := map[string]interface{}{"_addresses": []string{address}, "_extended": true}
	if err := k.postJSON(ctx, "/address_utxos", payload, &rows); err != nil {
		return nil, err
	}
	out := make([]cardano.UTxO, 0, len(rows))
	for _, r := range rows {
		u, err := r.toUTxO()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// AssetsByPolicy 查询 /policy_asset_info
func (k *KoiosClient) AssetsByPolicy(ctx context.Context, policy cardano.PolicyID) ([]AssetInfo, error) {
	var rows []struct {
		AssetName         string                     `json:"asset_name"`
		MintingTxMetadata map[string]json.RawMessage `json:"minting_tx_metadata"`
	}
	q := url.Values{"_asset_policy": []string{string(policy)}}
	if err := k.do(ctx, http.MethodGet, "/policy_asset_info", q, "", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]AssetInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, AssetInfo{Policy: policy, Name: cardano.AssetName(r.AssetName), Metadata: r.MintingTxMetadata})
	}
	return out, nil
}

// ProtocolParameters 查询 /cli_protocol_params，只取成本模型
func (k *KoiosClient) ProtocolParameters(ctx context.Context) (ProtocolParameters, error) {
	var raw struct {
		CostModels map[string][]int64 `json:"costModels"`
	}
	if err := k.do(ctx, http.MethodGet, "/cli_protocol_params", nil, "", nil, &raw); err != nil {
		return ProtocolParameters{}, err
	}
	p := ProtocolParameters{CostModels: make(map[plutus.Language][]int64)}
	for name, lang := range map[string]plutus.Language{"PlutusV1": plutus.PlutusV1, "PlutusV2": plutus.PlutusV2, "PlutusV3": plutus.PlutusV3} {
		if m, ok := raw.CostModels[name]; ok && len(m) > 0 {
			p.CostModels[lang] = m
		}
	}
	return p, nil
}

// SubmitTx 以 application/cbor 提交到 /submittx
func (k *KoiosClient) SubmitTx(ctx context.Context, cbor []byte) (cardano.TxHash, error) {
	var h string
	if err := k.do(ctx, http.MethodPost, "/submittx", nil, "application/cbor", cbor, &h); err != nil {
		return "", err
	}
	return cardano.TxHash(h), nil
}
