// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bind

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-tty"

	"github.com/edulearn/edu/client"
)

type Signer interface {
	Address() common.Address
	SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type PrivateKeySigner ecdsa.PrivateKey

func NewSigner(privateKey *ecdsa.PrivateKey) *PrivateKeySigner {
	return (*PrivateKeySigner)(privateKey)
}

func (p *PrivateKeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(p.PublicKey)
}

func (p *PrivateKeySigner) SignTransaction(_ context.Context, trx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(trx, types.LatestSignerForChainID(chainID), (*ecdsa.PrivateKey)(p))
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// KeystoreSigner signs with an encrypted key from a go-ethereum keystore directory.
type KeystoreSigner struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase string
}

// NewKeystoreSigner opens dir and selects the account matching address, or the
// first account when address is empty.
func NewKeystoreSigner(dir string, address string, passphrase string) (*KeystoreSigner, error) {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	all := ks.Accounts()
	if len(all) == 0 {
		return nil, fmt.Errorf("no accounts in keystore %s", dir)
	}
	account := all[0]
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address %q", address)
		}
		want := accounts.Account{Address: common.HexToAddress(address)}
		found, err := ks.Find(want)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", address, err)
		}
		account = found
	}
	return &KeystoreSigner{ks: ks, account: account, passphrase: passphrase}, nil
}

func (k *KeystoreSigner) Address() common.Address {
	return k.account.Address
}

func (k *KeystoreSigner) SignTransaction(_ context.Context, trx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return k.ks.SignTxWithPassphrase(k.account, k.passphrase, trx, chainID)
}

// ConfirmFunc asks the account holder to approve a transaction before it is signed.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction) (bool, error)

// ConfirmingSigner wraps a signer with an approval step. A refusal is
// reported as client.ErrUserRejected.
type ConfirmingSigner struct {
	Signer
	confirm ConfirmFunc
}

func NewConfirmingSigner(signer Signer, confirm ConfirmFunc) *ConfirmingSigner {
	return &ConfirmingSigner{Signer: signer, confirm: confirm}
}

func (s *ConfirmingSigner) SignTransaction(ctx context.Context, trx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	ok, err := s.confirm(ctx, trx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, client.ErrUserRejected
	}
	return s.Signer.SignTransaction(ctx, trx, chainID)
}

// TTYConfirm prompts on the controlling terminal and accepts "y" or "yes".
func TTYConfirm(describe func(tx *types.Transaction) string) ConfirmFunc {
	return func(ctx context.Context, trx *types.Transaction) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		t, err := tty.Open()
		if err != nil {
			return false, fmt.Errorf("open tty: %w", err)
		}
		defer t.Close()

		fmt.Fprintf(t.Output(), "%s\nSign and send? [y/N] ", describe(trx))
		answer, err := t.ReadString()
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	}
}

// ReadPassphrase reads a secret from the controlling terminal without echo.
func ReadPassphrase(prompt string) (string, error) {
	t, err := tty.Open()
	if err != nil {
		return "", fmt.Errorf("open tty: %w", err)
	}
	defer t.Close()

	fmt.Fprint(t.Output(), prompt)
	pass, err := t.ReadPasswordNoEcho()
	if err != nil {
		return "", err
	}
	if pass == "" {
		return "", errors.New("empty passphrase")
	}
	return pass, nil
}
