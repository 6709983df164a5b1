// Command solidus-bankd is the bank process' CLI entry point: an
// out-of-scope collaborator per spec.md §1 that wires config, store and
// bank together the way the teacher's examples/trie_bench wires its own
// flags, backend choice and model into a runnable driver. It assembles
// already-implemented core components; no core PVORM logic lives here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solidus-network/pvorm/bank"
	"github.com/solidus-network/pvorm/config"
	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/logging"
	"github.com/solidus-network/pvorm/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "solidus-bankd",
		Short: "Solidus PVORM bank process",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (built-in defaults if unset)")
	root.AddCommand(newInspectCmd(), newDemoTransferCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// newInspectCmd reports the resolved config and opens the on-disk store
// just long enough to confirm it's reachable, mirroring the reporting
// trie_bench's scandbbadger command does for its own badger database.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "report the resolved config and on-disk store state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log, err := logging.New(logging.LevelProduction)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			s, err := store.Open(cfg.DataDir, cfg.TransactionTimeoutMs)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.BuildParams(cfg.VMax, cfg.Gap)
			if err != nil {
				return err
			}

			log.Infow("store opened", "data_dir", cfg.DataDir, "v_max", p.VMax, "gap", p.DLogGap)
			fmt.Printf("data_dir=%s v_max=%d gap=%d tree_depth=%d bucket_size=%d stash_size=%d transaction_timeout_ms=%d\n",
				cfg.DataDir, cfg.VMax, cfg.Gap, cfg.TreeDepth, cfg.BucketSize, cfg.StashSize, cfg.TransactionTimeoutMs)
			return nil
		},
	}
}

// newDemoTransferCmd runs a self-contained two-bank transfer entirely
// in memory and reports the resulting balances, a smoke test for the
// whole generate_header/send_transaction/receive_transaction flow with no
// external dependencies beyond the resolved config - the CLI analogue of
// trie_bench's "gen" command building a fixture from scratch.
func newDemoTransferCmd() *cobra.Command {
	var amount int64
	cmd := &cobra.Command{
		Use:   "demo-transfer",
		Short: "run a two-bank transfer in memory and print the resulting balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log, err := logging.New(logging.LevelDevelopment)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			p := group.Build(cfg.GroupOpts())
			exec := executor.Executor(executor.NewPool(cfg.ExecutorPoolSize))

			senderSecret := p.RandomScalar()
			receiverSecret := p.RandomScalar()
			sourceAccount := p.PointFromScalarMult(p.RandomScalar())
			destAccount := p.PointFromScalarMult(p.RandomScalar())

			senderOwned, err := encoram.NewBuilder(p, senderSecret, cfg.TreeDepth, cfg.BucketSize, cfg.StashSize).
				Insert(sourceAccount, 1_000).
				Build()
			if err != nil {
				return err
			}
			receiverOwned, err := encoram.NewBuilder(p, receiverSecret, cfg.TreeDepth, cfg.BucketSize, cfg.StashSize).
				Insert(destAccount, 0).
				Build()
			if err != nil {
				return err
			}

			senderBank := bank.New(p, senderSecret, senderOwned, cfg.TransactionTimeoutMs, exec, log)
			receiverBank := bank.New(p, receiverSecret, receiverOwned, cfg.TransactionTimeoutMs, exec, log)
			receiverBank.RegisterRemote(bank.NewRemoteViewFromSnapshot(senderBank.PublicKey(), senderOwned.EncryptedSnapshot()))

			destView := bank.NewRemoteView(p, cfg.TreeDepth, cfg.BucketSize, cfg.StashSize, receiverBank.PublicKey())

			now := bank.NowMs()
			header, senderDebit, receiverCredit, err := senderBank.GenerateHeader("demo-tx", now, destView, sourceAccount, destAccount, amount)
			if err != nil {
				return err
			}
			tx, err := senderBank.SendTransaction(header, senderDebit, now)
			if err != nil {
				return err
			}
			if err := receiverBank.ReceiveTransaction(tx, receiverCredit, now); err != nil {
				return err
			}

			senderBalance, _ := senderOwned.Balance(sourceAccount)
			receiverBalance, _ := receiverOwned.Balance(destAccount)
			log.Infow("transfer complete", "sender", senderBank.ID(), "receiver", receiverBank.ID(), "amount", amount)
			fmt.Printf("sender %s balance=%d\nreceiver %s balance=%d\n",
				senderBank.ID(), senderBalance, receiverBank.ID(), receiverBalance)
			return nil
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 100, "amount to transfer from the demo source account to the demo destination account")
	return cmd
}
