// Command dobee validates entity models, prints the statements the mapper
// renders for them and generates their Go entity types.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/airagroup/dobee/config"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/schema"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	modelPath  string
	prefix     string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "dobee",
		Short:         "Entity model tooling for the dobee data mapper",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultFile, "Config file naming the model")
	root.PersistentFlags().StringVarP(&g.modelPath, "model", "m", "", "Model file, overrides the config")
	root.PersistentFlags().StringVar(&g.prefix, "prefix", "", "Table prefix, overrides the config")

	root.AddCommand(
		newCheckCmd(g),
		newSQLCmd(g),
		newGenCmd(g),
	)
	return root
}

// load returns the model and the table prefix to render it with.
func (g *globals) load() (*schema.Model, string, error) {
	path, prefix := g.modelPath, g.prefix
	if path == "" {
		cfg, err := config.Load(g.configPath)
		if err != nil {
			return nil, "", err
		}
		if cfg.Model == "" {
			return nil, "", fmt.Errorf("%s names no model file", g.configPath)
		}
		path = cfg.Model
		if prefix == "" {
			prefix = cfg.TablePrefix
		}
	}
	if prefix == "" {
		prefix = naming.DefaultPrefix
	}
	m, err := schema.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return m, prefix, nil
}
