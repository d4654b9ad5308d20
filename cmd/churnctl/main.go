package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd 创建根命令，配置来自 flag、环境变量与 .env
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "churnctl",
		Short:         "Command line client for the churn analytics assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env 不存在时忽略
			_ = godotenv.Load()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080", "analytics-service base URL")
	flags.String("token", "", "bearer token (CHURNCTL_TOKEN)")
	flags.String("tenant", "", "tenant id used to mint a token when --token is empty")
	flags.String("jwt-secret", "", "signing secret used to mint tokens (JWT_SECRET)")
	flags.String("issuer", "churnbot", "token issuer")
	flags.Duration("timeout", 10*time.Second, "request timeout")
	flags.Int("retries", 2, "retries on transport errors")

	for _, name := range []string{"server", "token", "tenant", "jwt-secret", "issuer", "timeout", "retries"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	v.SetEnvPrefix("churnctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("jwt-secret", "CHURNCTL_JWT_SECRET", "JWT_SECRET"); err != nil {
		panic(err)
	}

	root.AddCommand(
		newTokenCmd(v),
		newCatalogCmd(v),
		newAskCmd(v),
		newMetricCmd(v),
	)
	return root
}
