package blockchain

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RPCEndpoint maps a network name to its public RPC endpoint
func RPCEndpoint(network string) string {
	switch network {
	case "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet":
		return "http://127.0.0.1:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// SolanaClient sends and confirms transactions signed by the server wallet
type SolanaClient struct {
	rpcClient    *rpc.Client
	rpcURL       string
	serverWallet solana.PrivateKey
	confirmPoll  time.Duration
	log          *zap.Logger
}

// NewSolanaClient creates a client for rpcURL. privateKey is the base58
// server wallet key and may be empty for read-only use.
func NewSolanaClient(rpcURL, privateKey string, log *zap.Logger) (*SolanaClient, error) {
	client := &SolanaClient{
		rpcClient:   rpc.New(rpcURL),
		rpcURL:      rpcURL,
		confirmPoll: 2 * time.Second,
		log:         log.Named("solana"),
	}
	if privateKey != "" {
		key, err := solana.PrivateKeyFromBase58(privateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid server wallet key: %w", err)
		}
		client.serverWallet = key
		client.log.Info("server wallet loaded", zap.Stringer("pubkey", key.PublicKey()))
	}
	return client, nil
}

// ServerPublicKey returns the server wallet address, or the zero key when
// no wallet is loaded
func (s *SolanaClient) ServerPublicKey() solana.PublicKey {
	if len(s.serverWallet) == 0 {
		return solana.PublicKey{}
	}
	return s.serverWallet.PublicKey()
}

// ValidateWalletAddress validates a Solana wallet address format
func ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// SendAndConfirm signs instructions with the server wallet, sends them and
// waits until the transaction is confirmed or ctx is done.
func (s *SolanaClient) SendAndConfirm(ctx context.Context, instructions ...solana.Instruction) (solana.Signature, error) {
	if len(s.serverWallet) == 0 {
		return solana.Signature{}, fmt.Errorf("server wallet not configured")
	}
	payer := s.serverWallet.PublicKey()

	recent, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &s.serverWallet
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := s.waitConfirmed(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s *SolanaClient) waitConfirmed(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(s.confirmPoll)
	defer ticker.Stop()

	for {
		status, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return fmt.Errorf("failed to get signature status: %w", err)
		}
		if len(status.Value) > 0 && status.Value[0] != nil {
			st := status.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, st.Err)
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetTokenAccountBalance sums the balances of owner's token accounts for mint
func (s *SolanaClient) GetTokenAccountBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	resp, err := s.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{
			Mint: &mint,
		},
		&rpc.GetTokenAccountsOpts{
			Encoding: solana.EncodingBase64,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get token accounts: %w", err)
	}

	var total uint64
	for _, account := range resp.Value {
		var tokenAccount token.Account
		decoder := bin.NewBinDecoder(account.Account.Data.GetBinary())
		if err := tokenAccount.UnmarshalWithDecoder(decoder); err != nil {
			s.log.Warn("failed to decode token account", zap.Stringer("account", account.Pubkey), zap.Error(err))
			continue
		}
		total += tokenAccount.Amount
	}
	return total, nil
}

// toBaseUnits converts a non-negative integer amount to SPL base units
func toBaseUnits(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return 0, fmt.Errorf("amount %s is not a positive integer", amount)
	}
	n := amount.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64", amount)
	}
	return n.Uint64(), nil
}
