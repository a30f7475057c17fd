package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// LoginMessage is the message a wallet signs to authenticate
const LoginMessage = "Sign this message to authenticate with the prediction venue"

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// VerifyWalletSignature checks an ed25519 signature of LoginMessage by a
// Solana wallet. The signature may be base58 or hex encoded.
func VerifyWalletSignature(walletAddress, signature string) error {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return ErrInvalidWallet
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		sig, err = hex.DecodeString(signature)
		if err != nil {
			return ErrInvalidSignature
		}
	}
	if len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey[:]), []byte(LoginMessage), sig) {
		return ErrInvalidSignature
	}
	return nil
}
