// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"

	"github.com/edulearn/edu/account"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/rewards"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

func units(v *big.Int) string {
	if v == nil {
		return "-"
	}
	return edu.FormatUnits(v, edu.TokenDecimals) + " " + edu.TokenSymbol
}

// printNotifications echoes notifications until the returned stop is called.
func printNotifications(center *notify.Center) func() {
	ch := make(chan notify.Notification, 16)
	center.Subscribe(ch)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case n := <-ch:
				printNotification(n)
			case <-done:
				for {
					select {
					case n := <-ch:
						printNotification(n)
					default:
						return
					}
				}
			}
		}
	}()
	return func() {
		center.Unsubscribe(ch)
		close(done)
		wg.Wait()
	}
}

func printNotification(n notify.Notification) {
	switch n.Level {
	case notify.Success:
		pterm.Success.Println(n.Message)
	case notify.Error:
		pterm.Error.Println(n.Message)
	default:
		pterm.Info.Println(n.Message)
	}
}

func printInfo(msg string) {
	pterm.Info.Println(msg)
}

func printSummary(info session.Info, s *account.Summary) {
	admin := "no"
	if s.Admin {
		admin = "yes"
	}
	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Field", "Value"},
		{"Account", s.Address.Hex()},
		{"Network", fmt.Sprintf("%v (chain %d)", info.State, info.ChainID)},
		{"Balance", units(s.Balance)},
		{"Staking allowance", units(s.Allowance)},
		{"Rewards earned", units(s.Earned)},
		{"Rewards claimed", units(s.Claimed)},
		{"Claimable", units(s.Claimable)},
		{"Admin", admin},
	}).Render()
}

func printStatus(st stake.Status) {
	data := pterm.TableData{
		{"Field", "Value"},
		{"Phase", st.Phase.String()},
	}
	if st.Approval != nil {
		data = append(data, []string{"Approval tx", st.Approval.ID.Hex()})
	}
	if st.Stake != nil {
		data = append(data, []string{"Stake tx", st.Stake.ID.Hex()})
	}
	if st.Allowance != nil {
		data = append(data, []string{"Allowance", units(st.Allowance)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printClaim(c *rewards.Claim) {
	pterm.DefaultTable.WithData(pterm.TableData{
		{"Claimed", units(c.Amount)},
		{"Tx", c.Tx.Hex()},
		{"Block", strconv.FormatUint(c.Block, 10)},
	}).Render()
}

func printTx(what string, hash common.Hash) {
	pterm.Success.Printfln("%s: %s", what, hash.Hex())
}

func printHistory(entries []*journal.Entry) {
	if len(entries) == 0 {
		printInfo("no transactions")
		return
	}
	data := pterm.TableData{{"Time", "Kind", "Amount", "Status", "Tx"}}
	for _, e := range entries {
		data = append(data, []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Handle.Kind.String(),
			units(e.Amount),
			e.Status,
			e.Handle.ID.Hex(),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printServing(url string, account, staking common.Address) {
	pterm.DefaultBox.WithTitle("EDU").Println(fmt.Sprintf("API:     %v\nAccount: %v\nStaking: %v", url, account.Hex(), staking.Hex()))
}
