package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"prediction-venue/internal/token"

	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SPLToken is collateral held as an SPL token. The server wallet is the
// custodian and pulls deposits as the delegate each owner approved on chain.
// Transfers settle on chain and cannot join a database transaction.
type SPLToken struct {
	client *SolanaClient
	mint   solana.PublicKey
	log    *zap.Logger
}

// NewSPLToken creates collateral for mint moved by client's server wallet
func NewSPLToken(client *SolanaClient, mintAddress string, log *zap.Logger) (*SPLToken, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}
	if client.ServerPublicKey().IsZero() {
		return nil, fmt.Errorf("spl collateral requires a server wallet")
	}
	return &SPLToken{client: client, mint: mint, log: log.Named("spl")}, nil
}

func (t *SPLToken) Custodian() string {
	return t.client.ServerPublicKey().String()
}

func (t *SPLToken) BalanceOf(ctx context.Context, account string) (decimal.Decimal, error) {
	owner, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid account %q: %w", account, err)
	}
	amount, err := t.client.GetTokenAccountBalance(ctx, owner, t.mint)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0), nil
}

// TransferFrom moves amount from owner's associated token account using the
// server wallet's delegated allowance
func (t *SPLToken) TransferFrom(ctx context.Context, owner, recipient string, amount decimal.Decimal) error {
	return t.transfer(ctx, owner, recipient, amount)
}

// Transfer pays amount out of the server wallet's token account
func (t *SPLToken) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	return t.transfer(ctx, t.Custodian(), recipient, amount)
}

func (t *SPLToken) transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	units, err := toBaseUnits(amount)
	if err != nil {
		return fmt.Errorf("%w: %w", token.ErrInvalidAmount, err)
	}
	source, err := t.associatedAccount(from)
	if err != nil {
		return err
	}
	destination, err := t.associatedAccount(to)
	if err != nil {
		return err
	}

	ix, err := spltoken.NewTransferInstruction(
		units,
		source,
		destination,
		t.client.ServerPublicKey(),
		[]solana.PublicKey{},
	).ValidateAndBuild()
	if err != nil {
		return fmt.Errorf("failed to build transfer: %w", err)
	}

	sig, err := t.client.SendAndConfirm(ctx, ix)
	if err != nil {
		return err
	}
	t.log.Info("collateral transferred",
		zap.String("from", from),
		zap.String("to", to),
		zap.Uint64("amount", units),
		zap.Stringer("signature", sig))
	return nil
}

func (t *SPLToken) associatedAccount(wallet string) (solana.PublicKey, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid wallet %q: %w", wallet, err)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, t.mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	return ata, nil
}

var _ token.Token = (*SPLToken)(nil)

// DiagnosticResult holds the result of a collateral connectivity check
type DiagnosticResult struct {
	RPCConnected    bool   `json:"rpc_connected"`
	RPCURL          string `json:"rpc_url"`
	RPCError        string `json:"rpc_error,omitempty"`
	LatestBlockhash string `json:"latest_blockhash,omitempty"`
	Custodian       string `json:"custodian"`
	Mint            string `json:"mint"`
	CustodyAccount  string `json:"custody_account,omitempty"`
	CustodyBalance  string `json:"custody_balance,omitempty"`
	BalanceError    string `json:"balance_error,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// Diagnose checks RPC connectivity and reads the custody balance
func (t *SPLToken) Diagnose(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		RPCURL:    t.client.rpcURL,
		Custodian: t.Custodian(),
		Mint:      t.mint.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	blockhash, err := t.client.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCError = err.Error()
		t.log.Warn("rpc check failed", zap.Error(err))
	} else {
		result.RPCConnected = true
		result.LatestBlockhash = blockhash.Value.Blockhash.String()
	}

	if ata, err := t.associatedAccount(result.Custodian); err == nil {
		result.CustodyAccount = ata.String()
	}
	balance, err := t.BalanceOf(ctx, result.Custodian)
	if err != nil {
		result.BalanceError = err.Error()
	} else {
		result.CustodyBalance = balance.String()
	}
	return result
}
