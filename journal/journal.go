// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package journal persists the transactions issued by the stake sequencer.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/edulearn/edu/stake"
)

var ErrNotFound = errors.New("journal entry not found")

// Entry is a journaled transaction.
type Entry struct {
	Handle    stake.Handle   `json:"handle"`
	Amount    *big.Int       `json:"amount"`
	Owner     common.Address `json:"owner"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Intent returns the stake intent the entry was issued for.
func (e *Entry) Intent() stake.Intent {
	return stake.Intent{Amount: new(big.Int).Set(e.Amount), Owner: e.Owner}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Owner  *common.Address
	Status string
	Limit  int
}

type Journal struct {
	path          string
	db            *sql.DB
	driverVersion string
	now           func() time.Time
}

var _ stake.Journal = (*Journal)(nil)

// New creates or opens the journal at the given path.
func New(path string) (j *Journal, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if j == nil {
			db.Close()
		}
	}()
	// a memory database lives as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(entryTableSchema); err != nil {
		return nil, err
	}
	driverVer, _, _ := sqlite3.Version()
	return &Journal{path: path, db: db, driverVersion: driverVer, now: time.Now}, nil
}

// NewMem creates a journal in ram.
func NewMem() (*Journal, error) {
	return New(":memory:")
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) DriverVersion() string {
	return j.driverVersion
}

// Record stores a freshly submitted handle as pending.
func (j *Journal) Record(ctx context.Context, intent stake.Intent, h stake.Handle) error {
	if intent.Amount == nil {
		return errors.New("record: nil amount")
	}
	now := j.now().Unix()
	_, err := j.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO entry(txID, kind, amount, owner, status, createdAt, updatedAt) VALUES(?, ?, ?, ?, ?, ?, ?)",
		h.ID.Bytes(), int(h.Kind), intent.Amount.String(), intent.Owner.Bytes(), stake.StatusPending, now, now)
	if err != nil {
		return fmt.Errorf("record %v: %w", h.ID, err)
	}
	return nil
}

// Resolve updates the status of a recorded handle.
func (j *Journal) Resolve(ctx context.Context, h stake.Handle, status string) error {
	switch status {
	case stake.StatusPending, stake.StatusConfirmed, stake.StatusReverted, stake.StatusFailed:
	default:
		return fmt.Errorf("resolve: unknown status %q", status)
	}
	res, err := j.db.ExecContext(ctx, "UPDATE entry SET status = ?, updatedAt = ? WHERE txID = ?", status, j.now().Unix(), h.ID.Bytes())
	if err != nil {
		return fmt.Errorf("resolve %v: %w", h.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the entry of a transaction.
func (j *Journal) Get(ctx context.Context, id common.Hash) (*Entry, error) {
	entries, err := j.query(ctx, "SELECT * FROM entry WHERE txID = ?", id.Bytes())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

// List returns the entries matching filter, newest first.
func (j *Journal) List(ctx context.Context, filter *Filter) ([]*Entry, error) {
	stmt := "SELECT * FROM entry WHERE 1"
	var args []any
	if filter != nil {
		if filter.Owner != nil {
			stmt += " AND owner = ?"
			args = append(args, filter.Owner.Bytes())
		}
		if filter.Status != "" {
			stmt += " AND status = ?"
			args = append(args, filter.Status)
		}
	}
	stmt += " ORDER BY createdAt DESC, rowid DESC"
	if filter != nil && filter.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return j.query(ctx, stmt, args...)
}

// Pending returns the unresolved entries of owner, newest first.
func (j *Journal) Pending(ctx context.Context, owner common.Address) ([]*Entry, error) {
	return j.List(ctx, &Filter{Owner: &owner, Status: stake.StatusPending})
}

// Superseded reports whether a stake of the same owner was recorded after the entry of id.
func (j *Journal) Superseded(ctx context.Context, id common.Hash) (bool, error) {
	var found bool
	err := j.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM entry AS s, entry AS e
			WHERE e.txID = ? AND s.owner = e.owner AND s.kind = ?
				AND (s.createdAt > e.createdAt OR (s.createdAt = e.createdAt AND s.rowid > e.rowid)))`,
		id.Bytes(), int(stake.Stake)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("superseded %v: %w", id, err)
	}
	return found, nil
}

func (j *Journal) query(ctx context.Context, stmt string, args ...any) ([]*Entry, error) {
	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			txID, owner      []byte
			kind             int
			amount, status   string
			created, updated int64
		)
		if err := rows.Scan(&txID, &kind, &amount, &owner, &status, &created, &updated); err != nil {
			return nil, err
		}
		v, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("corrupted amount %q", amount)
		}
		entries = append(entries, &Entry{
			Handle:    stake.Handle{ID: common.BytesToHash(txID), Kind: stake.Kind(kind)},
			Amount:    v,
			Owner:     common.BytesToAddress(owner),
			Status:    status,
			CreatedAt: time.Unix(created, 0),
			UpdatedAt: time.Unix(updated, 0),
		})
	}
	return entries, rows.Err()
}
