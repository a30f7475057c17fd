package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(7, "wallet-7")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 7 || claims.WalletAddress != "wallet-7" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	InitJWT("other-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected token signed with another secret to fail")
	}
}

func TestValidateTokenRejectsForeignSessions(t *testing.T) {
	InitJWT("test-secret")

	sign := func(claims jwt.Claims, method jwt.SigningMethod) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		return raw
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name string
		raw  string
	}{
		{"other issuer", sign(&Claims{WalletAddress: "w", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "elsewhere", Subject: "w", ExpiresAt: exp,
		}}, jwt.SigningMethodHS256)},
		{"no expiry", sign(&Claims{WalletAddress: "w", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: sessionIssuer, Subject: "w",
		}}, jwt.SigningMethodHS256)},
		{"subject mismatch", sign(&Claims{WalletAddress: "w", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: sessionIssuer, Subject: "x", ExpiresAt: exp,
		}}, jwt.SigningMethodHS256)},
		{"wrong algorithm", sign(&Claims{WalletAddress: "w", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: sessionIssuer, Subject: "w", ExpiresAt: exp,
		}}, jwt.SigningMethodHS512)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.raw); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("expected ErrInvalidSession, got %v", err)
			}
		})
	}

	signingKey = nil
	if _, err := GenerateToken(1, "w"); !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("expected ErrNoSigningKey, got %v", err)
	}
	InitJWT("test-secret")
}

func TestVerifyWalletSignature(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	wallet := key.PublicKey().String()
	sig := ed25519.Sign(ed25519.PrivateKey(key), []byte(LoginMessage))

	if err := VerifyWalletSignature(wallet, base58.Encode(sig)); err != nil {
		t.Errorf("base58 signature rejected: %v", err)
	}
	if err := VerifyWalletSignature(wallet, hex.EncodeToString(sig)); err != nil {
		t.Errorf("hex signature rejected: %v", err)
	}

	other := ed25519.Sign(ed25519.PrivateKey(key), []byte("something else"))
	if err := VerifyWalletSignature(wallet, base58.Encode(other)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifyWalletSignature("not-a-key", base58.Encode(sig)); !errors.Is(err, ErrInvalidWallet) {
		t.Errorf("expected ErrInvalidWallet, got %v", err)
	}
}

func TestOperatorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitJWT("test-secret")

	r := gin.New()
	r.GET("/op", AuthMiddleware(zap.NewNop()), OperatorMiddleware("boss"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		wallet string
		want   int
	}{
		{"operator", "boss", http.StatusNoContent},
		{"someone else", "intern", http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/op", nil)
			if tt.wallet != "" {
				token, err := GenerateToken(1, tt.wallet)
				if err != nil {
					t.Fatalf("GenerateToken failed: %v", err)
				}
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
