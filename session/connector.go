// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/edulearn/edu/client/bind"
)

// Connector produces the signer of a session.
type Connector interface {
	Name() string
	Connect(ctx context.Context) (bind.Signer, error)
}

// PrivateKeyConnector signs with a raw hex encoded secp256k1 key.
type PrivateKeyConnector struct {
	key string
}

func NewPrivateKeyConnector(hexKey string) *PrivateKeyConnector {
	return &PrivateKeyConnector{key: strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")}
}

func (p *PrivateKeyConnector) Name() string { return "private-key" }

func (p *PrivateKeyConnector) Connect(context.Context) (bind.Signer, error) {
	if p.key == "" {
		return nil, errors.New("no private key configured")
	}
	key, err := crypto.HexToECDSA(p.key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return bind.NewSigner(key), nil
}

// KeystoreConnector unlocks an account of a keystore directory.
type KeystoreConnector struct {
	dir        string
	address    string
	passphrase func() (string, error)
}

// NewKeystoreConnector selects address in dir, or its first account when address is empty.
// passphrase is asked for on every connect.
func NewKeystoreConnector(dir, address string, passphrase func() (string, error)) *KeystoreConnector {
	return &KeystoreConnector{dir: dir, address: address, passphrase: passphrase}
}

func (k *KeystoreConnector) Name() string { return "keystore" }

func (k *KeystoreConnector) Connect(context.Context) (bind.Signer, error) {
	pass, err := k.passphrase()
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return bind.NewKeystoreSigner(k.dir, k.address, pass)
}

// Confirming wraps a connector so every transaction is confirmed before signing.
type Confirming struct {
	Connector
	confirm bind.ConfirmFunc
}

func NewConfirming(c Connector, confirm bind.ConfirmFunc) *Confirming {
	return &Confirming{Connector: c, confirm: confirm}
}

func (c *Confirming) Connect(ctx context.Context) (bind.Signer, error) {
	signer, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return bind.NewConfirmingSigner(signer, c.confirm), nil
}
