package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Polymarket defaults: USDC.e on Polygon, spent by the CTF exchange.
const (
	PolygonUSDC        = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	PolygonCTFExchange = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

	usdcDecimals   = 6
	nativeDecimals = 18
)

const erc20ABI = `[
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// Collateral holds on-chain balances in base units.
type Collateral struct {
	Native    *big.Int // wei
	Token     *big.Int
	Allowance *big.Int
}

// ChainConfig configures a ChainClient. Token and Spender default to the
// Polymarket contracts.
type ChainConfig struct {
	RPCURL  string
	Token   string
	Spender string
	Logger  *zap.Logger
}

// ChainClient reads the collateral token balance and exchange allowance of
// an address over JSON-RPC.
type ChainClient struct {
	rpcURL  string
	token   common.Address
	spender common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

// NewChainClient validates cfg and parses the token ABI.
func NewChainClient(cfg *ChainConfig) (*ChainClient, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	token, spender := cfg.Token, cfg.Spender
	if token == "" {
		token = PolygonUSDC
	}
	if spender == "" {
		spender = PolygonCTFExchange
	}
	for _, addr := range []string{token, spender} {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid contract address %q", addr)
		}
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	return &ChainClient{
		rpcURL:  cfg.RPCURL,
		token:   common.HexToAddress(token),
		spender: common.HexToAddress(spender),
		abi:     parsed,
		logger:  cfg.Logger,
	}, nil
}

// Collateral fetches the native balance, token balance and allowance of owner.
func (c *ChainClient) Collateral(ctx context.Context, owner common.Address) (*Collateral, error) {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	native, err := client.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("get native balance: %w", err)
	}

	token, err := c.callUint(ctx, client, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("get token balance: %w", err)
	}

	allowance, err := c.callUint(ctx, client, "allowance", owner, c.spender)
	if err != nil {
		return nil, fmt.Errorf("get token allowance: %w", err)
	}

	c.logger.Debug("collateral-fetched",
		zap.String("owner", owner.Hex()),
		zap.String("token", token.String()),
		zap.String("allowance", allowance.String()))

	return &Collateral{Native: native, Token: token, Allowance: allowance}, nil
}

func (c *ChainClient) callUint(ctx context.Context, client *ethclient.Client, method string, args ...any) (*big.Int, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &c.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return new(big.Int).SetBytes(result), nil
}

// TokenUnits converts a USDC base amount to a float.
func TokenUnits(v *big.Int) float64 {
	return scaled(v, usdcDecimals)
}

// NativeUnits converts wei to a float.
func NativeUnits(v *big.Int) float64 {
	return scaled(v, nativeDecimals)
}

func scaled(v *big.Int, decimals int) float64 {
	if v == nil {
		return 0
	}
	denom := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), denom).Float64()
	return f
}
