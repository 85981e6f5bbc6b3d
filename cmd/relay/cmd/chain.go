package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/chainchat-dev/chainchat-server/internal/chain"
	"github.com/chainchat-dev/chainchat-server/internal/log"
)

var betWei string

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Query the contract and manage matches",
}

var chainTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Show the total number of matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := newChainClient()
		if err != nil {
			return err
		}
		total, err := client.TotalMatches(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Total matches: %s\n", total)
		return nil
	},
}

var chainValueCmd = &cobra.Command{
	Use:   "value",
	Short: "Show the lifetime value handled by the contract",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := newChainClient()
		if err != nil {
			return err
		}
		value, err := client.LifetimeValue(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Lifetime value: %s wei\n", value)
		return nil
	},
}

var chainMatchCmd = &cobra.Command{
	Use:   "match <id>",
	Short: "Show one match record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBig(args[0])
		if err != nil {
			return fmt.Errorf("invalid match id %q", args[0])
		}
		client, _, err := newChainClient()
		if err != nil {
			return err
		}
		match, err := client.MatchInfo(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(match)
		return nil
	},
}

var chainCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a match with a bet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bet, err := parseBig(betWei)
		if err != nil {
			return fmt.Errorf("invalid bet %q", betWei)
		}
		client, cred, err := newChainClient()
		if err != nil {
			return err
		}

		receipt, id, err := client.CreateMatch(cmd.Context(), cred, bet)
		if err != nil {
			return err
		}

		fmt.Printf("Match created!\nTransaction: %s\n", receipt.TxHash)
		if id == nil {
			return nil
		}
		if match, err := client.MatchInfo(cmd.Context(), id); err == nil {
			fmt.Println(match)
		}
		return nil
	},
}

var chainJoinCmd = &cobra.Command{
	Use:   "join <id>",
	Short: "Join an existing match; the bet must equal the counter-party's",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBig(args[0])
		if err != nil {
			return fmt.Errorf("invalid match id %q", args[0])
		}
		bet, err := parseBig(betWei)
		if err != nil {
			return fmt.Errorf("invalid bet %q", betWei)
		}
		client, cred, err := newChainClient()
		if err != nil {
			return err
		}

		receipt, err := client.JoinMatch(cmd.Context(), cred, id, bet)
		if err != nil {
			return err
		}

		fmt.Printf("Match joined!\nTransaction: %s\n", receipt.TxHash)
		if match, err := client.MatchInfo(cmd.Context(), id); err == nil {
			fmt.Println(match)
		}
		return nil
	},
}

func newChainClient() (*chain.Client, chain.Credential, error) {
	logger := log.New("warn", "console")
	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, chain.Credential{}, err
	}

	client, err := chain.NewClient(cfg.Chain, logger)
	if err != nil {
		return nil, chain.Credential{}, err
	}

	var cred chain.Credential
	if cfg.Chain.PrivateKey != "" {
		if cred, err = chain.ParseCredential(cfg.Chain.PrivateKey); err != nil {
			return nil, chain.Credential{}, err
		}
	}
	return client, cred, nil
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("not a non-negative integer: %q", s)
	}
	return n, nil
}

func init() {
	chainCreateCmd.Flags().StringVar(&betWei, "bet", "", "bet amount in wei")
	_ = chainCreateCmd.MarkFlagRequired("bet")
	chainJoinCmd.Flags().StringVar(&betWei, "bet", "", "bet amount in wei")
	_ = chainJoinCmd.MarkFlagRequired("bet")

	chainCmd.AddCommand(chainTotalCmd, chainValueCmd, chainMatchCmd, chainCreateCmd, chainJoinCmd)
	rootCmd.AddCommand(chainCmd)
}
