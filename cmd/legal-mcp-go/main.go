// Command legal-mcp-go runs the retrieval core: an MCP server backed by a
// tenant-isolated vector store, an offline document catalog, and a
// content-addressed reference cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "legal-mcp-go",
	Short:   "MCP retrieval core over an offline legal corpus and private document collections",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML configuration overlay")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCorpusCmd)
}
