// Command cmdb-agent is the host-side sync agent.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jonmsawyer/cmdb/internal/agent"
	"github.com/jonmsawyer/cmdb/internal/crypto/envelope"
	"github.com/jonmsawyer/cmdb/internal/protocol"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cmdb", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cmdb", "config.toml")
}

// newClient loads the validated config and builds the API client.
func newClient(requireKey bool) (*agent.Config, *agent.APIClient, error) {
	cfg, err := agent.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if requireKey && len(cfg.APIKey) != protocol.APIKeyLen {
		return nil, nil, fmt.Errorf("config %s: missing or malformed api_key (run `cmdb-agent register` first)", configPath)
	}
	return cfg, agent.NewAPIClient(cfg), nil
}

func hostFQDN() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return strings.ToLower(name), nil
}

var rootCmd = &cobra.Command{
	Use:   "cmdb-agent",
	Short: "Keep this host's tracked configuration files in sync with the CMDB",
}

var genconfigCmd = &cobra.Command{
	Use:   "genconfig",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing config %s", configPath)
		}
		if err := agent.DefaultConfig().WriteTo(configPath); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", configPath)
		fmt.Println("Edit hostname/port/uri, then run `cmdb-agent register`.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this host and obtain an API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newClient(false)
		if err != nil {
			return err
		}
		fqdn, err := hostFQDN()
		if err != nil {
			return err
		}
		resp, err := api.Register(context.Background(), fqdn)
		if err != nil {
			return err
		}
		fmt.Printf("Host `%s` successfully registered with CMDB!\n\n", fqdn)
		fmt.Printf("API Key: %s\n\n", resp.APIKey)
		fmt.Printf("!!! WARNING: save this API Key in your config file: `%s`\n", configPath)
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Disable this host on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newClient(true)
		if err != nil {
			return err
		}
		resp, err := api.Unregister(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Host `%s` successfully unregistered with CMDB!\n", resp.FQDN)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show this host's registration details",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := newClient(true)
		if err != nil {
			return err
		}
		resp, err := api.Info(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("CMDB URI:                %s\n", cfg.URL(""))
		fmt.Printf("Client name:             %s\n", resp.Name)
		fmt.Printf("Client registered on:    %s\n", resp.DateCreated)
		fmt.Printf("Client API Key:          %s\n", resp.APIKey)
		fmt.Printf("Client disabled?         %t\n", resp.IsDisabled)
		fmt.Printf("Client blacklisted?      %t\n", resp.IsBlacklisted)
		fmt.Printf("Configurations Tracking: %d\n", resp.ConfigurationsTracking)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-file sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newClient(true)
		if err != nil {
			return err
		}
		resp, err := api.ConfigStatus(context.Background())
		if err != nil {
			return err
		}
		for _, entry := range resp.Configurations {
			remote := agent.RemoteFromEntry(entry)
			local, err := agent.ResolveLocal(remote.FilePath)
			if err != nil {
				local = &agent.LocalFile{Path: remote.FilePath}
			}
			fmt.Println(agent.StatusLine(local, remote))
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Start tracking a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newClient(true)
		if err != nil {
			return err
		}
		body, err := localBody(args[0])
		if err != nil {
			return err
		}
		resp, err := api.Add(context.Background(), *body)
		if err != nil {
			return err
		}
		fmt.Printf("Added    %s r1\n", resp.FilePath)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <file>",
	Short: "Stop tracking a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newClient(true)
		if err != nil {
			return err
		}
		body, err := localBody(args[0])
		if err != nil {
			return err
		}
		resp, err := api.Remove(context.Background(), *body)
		if err != nil {
			return err
		}
		fmt.Printf("Removed  %s\n", resp.FilePath)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := newClient(true)
		if err != nil {
			return err
		}
		env, err := envelope.FromString(cfg.EncryptionKey)
		if err != nil {
			return err
		}
		logger, err := agent.NewSyncLogger(cfg.SyncLogFile)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		rec := agent.NewReconciler(api, env, logger)
		results, err := rec.Sync(context.Background())
		if err != nil {
			return err
		}
		failed := 0
		for _, res := range results {
			if res.Outcome == agent.OutcomeError || res.Outcome == agent.OutcomeAmbiguous {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files need attention", failed, len(results))
		}
		return nil
	},
}

// localBody resolves a local file into the add/remove payload. Only text
// files can be added; binary content enters history through sync pushes.
func localBody(path string) (*protocol.ConfigurationBody, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("missing file `%s` on filesystem, cannot add to CMDB", path)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file `%s` is not a text file, aborting", path)
	}
	return &protocol.ConfigurationBody{
		FilePath:      abs,
		Mtime:         st.ModTime().Unix(),
		Payload:       string(raw),
		CaseSensitive: agent.FilesystemCaseSensitive(),
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the agent config file")
	rootCmd.AddCommand(genconfigCmd, registerCmd, unregisterCmd, infoCmd, statusCmd, addCmd, removeCmd, syncCmd)
}
