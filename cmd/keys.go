package cmd

import (
	"fmt"

	"github.com/pebbe/zmq4"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Key material utilities",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a fresh CurveZMQ keypair and print its public and private keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := zmq4.NewCurveKeypair()
		if err != nil {
			return fmt.Errorf("failed to generate keypair: %w", err)
		}
		fmt.Printf("public:  %s\n", pub)
		fmt.Printf("private: %s\n", priv)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysGenerateCmd)
}
