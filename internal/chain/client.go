package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/core"
)

// contractABI covers the slice of the contract this relay touches: the two
// counters, the matches mapping, the two match transactions, and mint.
const contractABI = `[
	{"type":"function","name":"totalMatches","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"lifetimeValue","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"matches","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
		{"name":"player1","type":"address"},
		{"name":"player2","type":"address"},
		{"name":"player1Bet","type":"uint256"},
		{"name":"player2Bet","type":"uint256"},
		{"name":"complete","type":"bool"},
		{"name":"winner","type":"uint256"}
	]},
	{"type":"function","name":"createMatch","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"joinMatch","stateMutability":"payable","inputs":[{"name":"matchId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]}
]`

// writeGasLimit caps gas on signed calls, matching the contract's deploy-time
// tuning.
const writeGasLimit = 5_000_000

// Config selects the node endpoint and the fixed contract.
type Config struct {
	RPCURL          string `mapstructure:"rpc_url" yaml:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`
	ChainID         int64  `mapstructure:"chain_id" yaml:"chain_id"`
	PrivateKey      string `mapstructure:"private_key" yaml:"private_key"`
}

// TransactionReceipt reports a submitted transaction. Submission only: the
// relay does not track confirmation depth or finality.
type TransactionReceipt struct {
	TxHash string `json:"tx_hash"`
}

// Client issues read queries and signed transactions against one fixed
// contract.
type Client struct {
	contract *bind.BoundContract
	address  common.Address
	chainID  *big.Int
	log      *zerolog.Logger
}

// NewClient dials the node and binds the contract. The connection is lazy;
// the first query surfaces node availability errors.
func NewClient(cfg Config, logger *zerolog.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain: rpc_url is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("chain: invalid contract address %q", cfg.ContractAddress)
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("chain: chain_id is required")
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse contract abi: %w", err)
	}

	ec, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	addr := common.HexToAddress(cfg.ContractAddress)
	return &Client{
		contract: bind.NewBoundContract(addr, parsed, ec, ec, ec),
		address:  addr,
		chainID:  big.NewInt(cfg.ChainID),
		log:      logger,
	}, nil
}

// TotalMatches returns the totalMatches counter.
func (c *Client) TotalMatches(ctx context.Context) (*big.Int, error) {
	return c.queryUint(ctx, "totalMatches")
}

// LifetimeValue returns the lifetimeValue counter in wei.
func (c *Client) LifetimeValue(ctx context.Context) (*big.Int, error) {
	return c.queryUint(ctx, "lifetimeValue")
}

func (c *Client) queryUint(ctx context.Context, method string) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return nil, fmt.Errorf("query %s: %w", method, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// MatchInfo reads one match record. The mapping returns a zero-valued tuple
// for ids that were never created, so the id is range-checked against
// totalMatches first and out-of-range ids fail with core.ErrMatchNotFound.
func (c *Client) MatchInfo(ctx context.Context, id *big.Int) (Match, error) {
	total, err := c.TotalMatches(ctx)
	if err != nil {
		return Match{}, err
	}
	if id.Sign() < 0 || id.Cmp(total) >= 0 {
		return Match{}, fmt.Errorf("match %s: %w", id, core.ErrMatchNotFound)
	}

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "matches", id); err != nil {
		return Match{}, fmt.Errorf("query match %s: %w", id, err)
	}

	return Match{
		ID:         new(big.Int).Set(id),
		Player1:    *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Player2:    *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Player1Bet: abi.ConvertType(out[2], new(big.Int)).(*big.Int),
		Player2Bet: abi.ConvertType(out[3], new(big.Int)).(*big.Int),
		Complete:   *abi.ConvertType(out[4], new(bool)).(*bool),
		Winner:     abi.ConvertType(out[5], new(big.Int)).(*big.Int),
	}, nil
}

// CreateMatch submits a value-bearing createMatch transaction. The returned
// id is observed as totalMatches-1 after submission; concurrent creators can
// skew it, so it is advisory output only and nothing keys off it. A nil id
// with a nil error means the follow-up read failed after a successful
// submission.
func (c *Client) CreateMatch(ctx context.Context, cred Credential, bet *big.Int) (TransactionReceipt, *big.Int, error) {
	opts, err := c.transactor(ctx, cred, bet)
	if err != nil {
		return TransactionReceipt{}, nil, err
	}

	tx, err := c.contract.Transact(opts, "createMatch")
	if err != nil {
		return TransactionReceipt{}, nil, fmt.Errorf("create match: %w", err)
	}
	receipt := TransactionReceipt{TxHash: tx.Hash().Hex()}

	total, err := c.TotalMatches(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("tx", receipt.TxHash).Msg("created match but could not read back its id")
		return receipt, nil, nil
	}
	id := new(big.Int).Sub(total, big.NewInt(1))

	c.log.Info().Str("tx", receipt.TxHash).Str("match_id", id.String()).Msg("match created")
	return receipt, id, nil
}

// JoinMatch submits a joinMatch transaction. The bet must equal the
// counter-party's bet; the contract enforces that, not this client.
func (c *Client) JoinMatch(ctx context.Context, cred Credential, id, bet *big.Int) (TransactionReceipt, error) {
	opts, err := c.transactor(ctx, cred, bet)
	if err != nil {
		return TransactionReceipt{}, err
	}

	tx, err := c.contract.Transact(opts, "joinMatch", id)
	if err != nil {
		return TransactionReceipt{}, fmt.Errorf("join match %s: %w", id, err)
	}

	receipt := TransactionReceipt{TxHash: tx.Hash().Hex()}
	c.log.Info().Str("tx", receipt.TxHash).Str("match_id", id.String()).Msg("match joined")
	return receipt, nil
}

// Mint submits a mint transaction for the given wallet. Submission errors
// are returned to the caller, never swallowed.
func (c *Client) Mint(ctx context.Context, cred Credential, wallet string) (TransactionReceipt, error) {
	if !common.IsHexAddress(wallet) {
		return TransactionReceipt{}, fmt.Errorf("mint: invalid wallet address %q", wallet)
	}

	opts, err := c.transactor(ctx, cred, nil)
	if err != nil {
		return TransactionReceipt{}, err
	}

	tx, err := c.contract.Transact(opts, "mint", common.HexToAddress(wallet))
	if err != nil {
		return TransactionReceipt{}, fmt.Errorf("mint for %s: %w", wallet, err)
	}

	receipt := TransactionReceipt{TxHash: tx.Hash().Hex()}
	c.log.Info().Str("tx", receipt.TxHash).Str("wallet", wallet).Msg("mint submitted")
	return receipt, nil
}

func (c *Client) transactor(ctx context.Context, cred Credential, value *big.Int) (*bind.TransactOpts, error) {
	if cred.IsZero() {
		return nil, fmt.Errorf("chain: signing credential required")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(cred.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("chain: build transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = writeGasLimit
	opts.Value = value
	return opts, nil
}
