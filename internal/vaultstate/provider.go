package vaultstate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"superyield/internal/config"
	"superyield/internal/domain"
)

// ErrUpstream wraps every failure to read vault state from the chain.
var ErrUpstream = errors.New("vault state unavailable")

// Provider returns the current vault snapshot.
type Provider interface {
	FetchVaultState(ctx context.Context) (domain.VaultState, error)
}

// ContractCaller is the read-only subset of *ethclient.Client used here.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var (
	selectorTotalAssets = common.FromHex("0x01e1d114")
	selectorTotalSupply = common.FromHex("0x18160ddd")
	selectorBalanceOf   = common.FromHex("0x70a08231")
)

// ChainProvider reads the vault over JSON-RPC. Callers are tried in order;
// the first one that answers wins.
type ChainProvider struct {
	Callers []ContractCaller
	Vault   common.Address
	// Asset, when set, is the ERC-20 whose vault balance is the idle amount.
	Asset   *common.Address
	Timeout time.Duration
	Logger  *zap.Logger
}

// Dial connects to the configured RPC endpoints. Endpoints that fail to dial
// are skipped; at least one must succeed.
func Dial(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*ChainProvider, error) {
	if !common.IsHexAddress(cfg.VaultAddress) {
		return nil, fmt.Errorf("vaultstate: invalid vault address %q", cfg.VaultAddress)
	}
	p := &ChainProvider{
		Vault:   common.HexToAddress(cfg.VaultAddress),
		Timeout: cfg.Timeout,
		Logger:  logger,
	}
	if asset := strings.TrimSpace(cfg.AssetAddress); asset != "" {
		if !common.IsHexAddress(asset) {
			return nil, fmt.Errorf("vaultstate: invalid asset address %q", asset)
		}
		addr := common.HexToAddress(asset)
		p.Asset = &addr
	}

	urls := append([]string{cfg.RPCURL}, cfg.FallbackURLs...)
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			if logger != nil {
				logger.Warn("vaultstate: dial failed", zap.String("url", url), zap.Error(err))
			}
			continue
		}
		p.Callers = append(p.Callers, client)
	}
	if len(p.Callers) == 0 {
		return nil, fmt.Errorf("vaultstate: no reachable rpc endpoint")
	}
	return p, nil
}

// FetchVaultState reads total assets (ERC-4626 totalAssets, falling back to
// totalSupply) and idle assets. The vault exposes no allocation view, so
// CurrentAllocations is empty.
func (p *ChainProvider) FetchVaultState(ctx context.Context) (domain.VaultState, error) {
	if p == nil || len(p.Callers) == 0 {
		return domain.VaultState{}, fmt.Errorf("%w: no rpc client", ErrUpstream)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	total, err := p.readUint(ctx, p.Vault, selectorTotalAssets)
	if err != nil {
		p.warn("vaultstate: totalAssets failed, using totalSupply", err)
		total, err = p.readUint(ctx, p.Vault, selectorTotalSupply)
		if err != nil {
			return domain.VaultState{}, fmt.Errorf("%w: read total: %v", ErrUpstream, err)
		}
	}

	idle := total
	if p.Asset != nil {
		data := append(append([]byte{}, selectorBalanceOf...), common.LeftPadBytes(p.Vault.Bytes(), 32)...)
		idle, err = p.readUint(ctx, *p.Asset, data)
		if err != nil {
			return domain.VaultState{}, fmt.Errorf("%w: read idle balance: %v", ErrUpstream, err)
		}
	}

	return domain.VaultState{
		TotalAssets:        total.String(),
		IdleAssets:         idle.String(),
		CurrentAllocations: []domain.Allocation{},
	}, nil
}

func (p *ChainProvider) readUint(ctx context.Context, to common.Address, data []byte) (*big.Int, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	var lastErr error
	for i, caller := range p.Callers {
		out, err := caller.CallContract(ctx, msg, nil)
		if err == nil && len(out) < 32 {
			err = fmt.Errorf("short return data (%d bytes)", len(out))
		}
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			if p.Logger != nil && i < len(p.Callers)-1 {
				p.Logger.Debug("vaultstate: rpc fallback", zap.Int("caller", i), zap.Error(err))
			}
			continue
		}
		return new(big.Int).SetBytes(out[:32]), nil
	}
	return nil, lastErr
}

func (p *ChainProvider) warn(msg string, err error) {
	if p.Logger != nil {
		p.Logger.Warn(msg, zap.Error(err))
	}
}
