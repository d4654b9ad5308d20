package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/auth"
)

// chatReply 服务端回复中 CLI 使用的字段
type chatReply struct {
	Source    string         `json:"source"`
	Assistant string         `json:"assistant"`
	MetricKey string         `json:"metric_key"`
	Value     any            `json:"value"`
	Meta      map[string]any `json:"meta"`
	Params    map[string]any `json:"params"`
	Cached    bool           `json:"cached"`
	Examples  []string       `json:"examples"`
}

type catalogEntry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Parameters  []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	} `json:"parameters"`
	Aliases []string `json:"aliases"`
}

type catalogResponse struct {
	Computations []catalogEntry `json:"calculos"`
	Help         []catalogEntry `json:"ayuda"`
}

// filterFlags 数据集过滤参数
type filterFlags struct {
	start, end, estado, tipo string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "contract start lower bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "contract start upper bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.estado, "estado", "", "customer status filter")
	cmd.Flags().StringVar(&f.tipo, "tipo", "", "plan type filter")
}

func (f *filterFlags) body() map[string]any {
	body := map[string]any{}
	for k, v := range map[string]string{"start": f.start, "end": f.end, "estado": f.estado, "tipo": f.tipo} {
		if v != "" {
			body[k] = v
		}
	}
	return body
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var user string
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a tenant bearer token signed with the shared secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, secret := v.GetString("tenant"), v.GetString("jwt-secret")
			if tenant == "" || secret == "" {
				return errNoCredentials
			}
			token, err := auth.NewJWTManager(secret, v.GetString("issuer"), expiry).GenerateToken(tenant, user, nil)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "churnctl", "user id claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	return cmd
}

func newCatalogCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List computations and help topics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(v)
			if err != nil {
				return err
			}
			var catalog catalogResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/chat/catalog", nil, &catalog); err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), &catalog)
		},
	}
}

func printCatalog(out io.Writer, catalog *catalogResponse) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGISTRY\tKEY\tDESCRIPTION\tPARAMETERS")
	for _, group := range []struct {
		name    string
		entries []catalogEntry
	}{{"calculos", catalog.Computations}, {"ayuda", catalog.Help}} {
		for _, e := range group.entries {
			params := make([]string, 0, len(e.Parameters))
			for _, p := range e.Parameters {
				if p.Required {
					params = append(params, p.Name+"*")
				} else {
					params = append(params, p.Name)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", group.name, e.Key, e.Description, strings.Join(params, ","))
		}
	}
	return w.Flush()
}

func newAskCmd(v *viper.Viper) *cobra.Command {
	var filters filterFlags
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a chat message and print the assistant reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(v)
			if err != nil {
				return err
			}
			body := filters.body()
			body["message"] = strings.Join(args, " ")

			var reply chatReply
			if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/chat/churn", body, &reply); err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), &reply, raw)
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&raw, "json", false, "print the full JSON reply")
	return cmd
}

func newMetricCmd(v *viper.Viper) *cobra.Command {
	var filters filterFlags
	var params map[string]string
	var raw bool

	cmd := &cobra.Command{
		Use:   "metric <key>",
		Short: "Execute a computation by key without intent matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return errors.New("metric key is required")
			}
			client, err := newAPIClient(v)
			if err != nil {
				return err
			}
			body := filters.body()
			if len(params) > 0 {
				body["params"] = params
			}

			var reply chatReply
			path := "/api/v1/chat/metrics/" + url.PathEscape(key)
			if err := client.do(cmd.Context(), http.MethodPost, path, body, &reply); err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), &reply, raw)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringToStringVar(&params, "param", nil, "computation parameter, e.g. --param fecha_fin=2025-06-30")
	cmd.Flags().BoolVar(&raw, "json", false, "print the full JSON reply")
	return cmd
}

func printReply(out io.Writer, reply *chatReply, raw bool) error {
	if raw {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	fmt.Fprintln(out, reply.Assistant)
	if reply.Cached {
		fmt.Fprintln(out, "(cached)")
	}
	return nil
}
