package cardano

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/resilience"
)

// BlockfrostURL returns the API root for a network
func BlockfrostURL(network string) string {
	switch network {
	case "mainnet":
		return "https://cardano-mainnet.blockfrost.io/api/v0"
	case "preview":
		return "https://cardano-preview.blockfrost.io/api/v0"
	default:
		return "https://cardano-preprod.blockfrost.io/api/v0"
	}
}

// Blockfrost is a minimal read-only Blockfrost client
type Blockfrost struct {
	BaseURL   string
	ProjectID string
	HTTP      *http.Client
	guard     *resilience.Guard
}

// NewBlockfrost builds a client for network
func NewBlockfrost(network, projectID string, log *logger.Logger) *Blockfrost {
	return &Blockfrost{
		BaseURL:   BlockfrostURL(network),
		ProjectID: projectID,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		guard:     resilience.NewGuard("blockfrost", log),
	}
}

func (b *Blockfrost) get(ctx context.Context, path string, out interface{}) error {
	return b.guard.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(b.BaseURL, "/")+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("project_id", b.ProjectID)
		res, err := b.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("blockfrost %s: %w", path, err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode != http.StatusOK {
			return &resilience.StatusError{Endpoint: "blockfrost " + path, Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return json.Unmarshal(body, out)
	})
}

type bfAmount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// Address calls GET /addresses/{address}
func (b *Blockfrost) Address(ctx context.Context, address string) (Wallet, error) {
	var raw struct {
		Address string     `json:"address"`
		Amount  []bfAmount `json:"amount"`
	}
	if err := b.get(ctx, "/addresses/"+url.PathEscape(address), &raw); err != nil {
		return Wallet{}, err
	}
	w := Wallet{Address: raw.Address, Tokens: []interface{}{}}
	for _, a := range raw.Amount {
		if a.Unit == "lovelace" {
			n, err := strconv.ParseInt(a.Quantity, 10, 64)
			if err != nil {
				return Wallet{}, fmt.Errorf("blockfrost: lovelace %q: %w", a.Quantity, err)
			}
			w.Lovelace = n
			w.ADABalance = float64(n) / 1_000_000
			continue
		}
		w.Tokens = append(w.Tokens, map[string]string{"unit": a.Unit, "quantity": a.Quantity})
	}
	return w, nil
}

// Transaction calls GET /txs/{hash}
func (b *Blockfrost) Transaction(ctx context.Context, hash string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := b.get(ctx, "/txs/"+url.PathEscape(hash), &out)
	return out, err
}

// LatestBlock calls GET /blocks/latest
func (b *Blockfrost) LatestBlock(ctx context.Context) (Block, error) {
	var raw struct {
		Hash    string `json:"hash"`
		Height  int64  `json:"height"`
		Slot    int64  `json:"slot"`
		Epoch   int    `json:"epoch"`
		Time    int64  `json:"time"`
		TxCount int    `json:"tx_count"`
	}
	if err := b.get(ctx, "/blocks/latest", &raw); err != nil {
		return Block{}, err
	}
	return Block{
		Hash:    raw.Hash,
		Height:  raw.Height,
		Slot:    raw.Slot,
		Epoch:   raw.Epoch,
		Time:    time.Unix(raw.Time, 0).UTC(),
		TxCount: raw.TxCount,
	}, nil
}

// Network combines GET /network and GET /epochs/latest
func (b *Blockfrost) Network(ctx context.Context) (NetworkInfo, error) {
	var nw struct {
		Supply map[string]interface{} `json:"supply"`
	}
	if err := b.get(ctx, "/network", &nw); err != nil {
		return NetworkInfo{}, err
	}
	blk, err := b.LatestBlock(ctx)
	if err != nil {
		return NetworkInfo{}, err
	}
	return NetworkInfo{Epoch: blk.Epoch, Slot: blk.Slot, BlockHeight: blk.Height, Supply: nw.Supply}, nil
}
