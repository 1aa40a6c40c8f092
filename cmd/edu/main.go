// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/edulearn/edu/api"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/metrics"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "edu")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "edu",
		Usage:   "Stake EDU, claim rewards and manage courses of the EDU learning platform",
		Flags: []cli.Flag{
			configFlag,
			rpcFlag,
			chainIDFlag,
			keyFlag,
			keystoreFlag,
			accountFlag,
			connectorFlag,
			confirmFlag,
			tokenFlag,
			stakingFlag,
			rewardsFlag,
			registryFlag,
			receiptTimeoutFlag,
			journalFlag,
			verbosityFlag,
			jsonLogsFlag,
			metricsAddrFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "account",
				Usage:  "show balance, allowance, rewards and role of the wallet account",
				Action: withApp(accountAction),
			},
			{
				Name:   "stake",
				Usage:  "approve if needed, then stake an amount of EDU",
				Flags:  []cli.Flag{amountFlag},
				Action: withApp(stakeAction),
			},
			{
				Name:   "claim",
				Usage:  "claim every pending reward",
				Action: withApp(claimAction),
			},
			{
				Name:  "admin",
				Usage: "course registry administration",
				Subcommands: []cli.Command{
					{
						Name:   "create-course",
						Usage:  "register a course by its metadata hash",
						Flags:  []cli.Flag{metadataFlag},
						Action: withApp(createCourseAction),
					},
					{
						Name:   "verify-instructor",
						Usage:  "mark an address as verified instructor",
						Flags:  []cli.Flag{instructorFlag},
						Action: withApp(verifyInstructorAction),
					},
				},
			},
			{
				Name:   "history",
				Usage:  "list the journaled transactions of the wallet account",
				Flags:  []cli.Flag{statusFlag, limitFlag},
				Action: withApp(historyAction),
			},
			{
				Name:   "resume",
				Usage:  "wait for the pending transactions of a previous run and finish the sequence",
				Action: withApp(resumeAction),
			},
			{
				Name:   "serve",
				Usage:  "serve the HTTP API",
				Flags:  []cli.Flag{apiAddrFlag, apiCorsFlag, enableAPILogsFlag},
				Action: withApp(serveAction),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, c *cli.Context, a *app) error

// withApp resolves the configuration and builds the services before running fn.
func withApp(fn action) func(*cli.Context) error {
	return func(c *cli.Context) error {
		initLogger(c)
		cfg, err := resolveConfig(c)
		if err != nil {
			return err
		}
		ctx := handleExitSignal()

		if cfg.MetricsAddr != "" {
			metrics.InitializePrometheusMetrics()
			url, closeMetrics, err := startMetricsServer(cfg.MetricsAddr)
			if err != nil {
				return err
			}
			defer func() { logger.Info("stopping metrics server..."); closeMetrics() }()
			logger.Info("metrics server started", "url", url)
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		stop := printNotifications(a.center)
		defer stop()
		return fn(ctx, c, a)
	}
}

func accountAction(ctx context.Context, _ *cli.Context, a *app) error {
	summary, err := a.accounts.Summary(ctx)
	if err != nil {
		return pkgerrors.WithMessage(err, "read account")
	}
	printSummary(a.session.Status(), summary)
	return nil
}

func stakeAction(ctx context.Context, c *cli.Context, a *app) error {
	seq, err := a.requireSequencer()
	if err != nil {
		return err
	}
	amount, err := edu.ParseUnits(c.String(amountFlag.Name), edu.TokenDecimals)
	if err != nil {
		return pkgerrors.WithMessage(err, "--amount")
	}
	owner, _ := a.session.Account()
	if err := seq.Submit(ctx, stake.Intent{Amount: amount, Owner: owner}); err != nil {
		return err
	}
	printStatus(seq.Status())
	return nil
}

func claimAction(ctx context.Context, _ *cli.Context, a *app) error {
	claim, err := a.rewards.Claim(ctx)
	if err != nil {
		return err
	}
	printClaim(claim)
	return nil
}

func createCourseAction(ctx context.Context, c *cli.Context, a *app) error {
	hash, err := a.registry.CreateCourse(ctx, c.String(metadataFlag.Name))
	if err != nil {
		return err
	}
	printTx("course created", hash)
	return nil
}

func verifyInstructorAction(ctx context.Context, c *cli.Context, a *app) error {
	hash, err := a.registry.VerifyInstructor(ctx, c.String(instructorFlag.Name))
	if err != nil {
		return err
	}
	printTx("instructor verification sent", hash)
	return nil
}

func historyAction(ctx context.Context, c *cli.Context, a *app) error {
	owner, ok := a.session.Account()
	if !ok {
		return session.ErrNotConnected
	}
	filter := &journal.Filter{Owner: &owner, Status: c.String(statusFlag.Name), Limit: c.Int(limitFlag.Name)}
	entries, err := a.journal.List(ctx, filter)
	if err != nil {
		return pkgerrors.WithMessage(err, "list journal")
	}
	printHistory(entries)
	return nil
}

func resumeAction(ctx context.Context, _ *cli.Context, a *app) error {
	seq, err := a.requireSequencer()
	if err != nil {
		return err
	}
	owner, _ := a.session.Account()
	pending, err := a.journal.Pending(ctx, owner)
	if err != nil {
		return pkgerrors.WithMessage(err, "list pending")
	}
	if len(pending) == 0 {
		printInfo("nothing to resume")
		return nil
	}
	// oldest first
	slices.Reverse(pending)
	for _, e := range pending {
		if e.Handle.Kind == stake.Approval {
			superseded, err := a.journal.Superseded(ctx, e.Handle.ID)
			if err != nil {
				return pkgerrors.WithMessage(err, "check pending approval")
			}
			if superseded {
				logger.Info("skipping approval followed by a later stake", "tx", e.Handle.ID)
				continue
			}
		}
		outcome, err := seq.Resume(ctx, e.Intent(), e.Handle)
		if errors.Is(err, stake.ErrAlreadyChained) {
			continue
		}
		if err != nil {
			return pkgerrors.WithMessagef(err, "resume %v", e.Handle.ID)
		}
		o := <-outcome
		if o.Err != nil {
			return o.Err
		}
	}
	printStatus(seq.Status())
	return nil
}

func serveAction(ctx context.Context, c *cli.Context, a *app) error {
	seq, err := a.requireSequencer()
	if err != nil {
		return err
	}
	addr := a.cfg.API.Addr
	if c.IsSet(apiAddrFlag.Name) {
		addr = c.String(apiAddrFlag.Name)
	}
	cors := a.cfg.API.CORS
	if c.IsSet(apiCorsFlag.Name) {
		cors = c.String(apiCorsFlag.Name)
	}
	var reqLogs atomic.Bool
	reqLogs.Store(a.cfg.API.EnableLogs || c.Bool(enableAPILogsFlag.Name))

	handler, closeStreams := api.New(api.Services{
		Session:   a.session,
		Accounts:  a.accounts,
		Sequencer: seq,
		Rewards:   a.rewards,
		Registry:  a.registry,
		Journal:   a.journal,
		Center:    a.center,
	}, api.Options{
		AllowedOrigins:  cors,
		Decimals:        edu.TokenDecimals,
		EnableReqLogger: &reqLogs,
		EnableMetrics:   a.cfg.MetricsAddr != "",
	})

	url, closeAPI, err := startAPIServer(addr, handler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); closeAPI() }()
	defer closeStreams()

	account, _ := a.session.Account()
	printServing(url, account, a.cfg.Contracts.Staking)
	<-ctx.Done()
	return nil
}
