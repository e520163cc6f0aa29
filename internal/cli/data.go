package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chronoglass/chronod/internal/config"
	"github.com/chronoglass/chronod/internal/schema"
	"github.com/chronoglass/chronod/internal/store"
)

// The data commands are the embedding host's direct capability: they read
// and write the raw document with no lifecycle invariants. A running
// server picks the changes up through its file watcher.

var saveFile string

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Direct raw access to the backing data file",
}

var dataLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print the raw document ({} when absent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		content, err := st.LoadRaw()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	},
}

var dataSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write a raw document verbatim (from --file or stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var content []byte
		var err error
		if saveFile != "" {
			content, err = os.ReadFile(saveFile)
		} else {
			content, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		return st.SaveRaw(string(content))
	},
}

var dataResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the backing data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		return st.Reset()
	},
}

var dataValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a document (or the backing file) against the expected shape",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			content = string(data)
		} else {
			st, err := openStore()
			if err != nil {
				return err
			}
			content, err = st.LoadRaw()
			if err != nil {
				return err
			}
		}

		problems, err := schema.NewValidator().Check(content)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "document is valid")
			return nil
		}
		for _, p := range problems {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return fmt.Errorf("document has %d problem(s)", len(problems))
	},
}

func init() {
	dataSaveCmd.Flags().StringVar(&saveFile, "file", "", "read the document from a file instead of stdin")

	dataCmd.AddCommand(dataLoadCmd)
	dataCmd.AddCommand(dataSaveCmd)
	dataCmd.AddCommand(dataResetCmd)
	dataCmd.AddCommand(dataValidateCmd)
	rootCmd.AddCommand(dataCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return store.New(cfg.DataFile, zerolog.Nop()), nil
}
