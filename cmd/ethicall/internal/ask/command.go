package ask

import (
	"github.com/spf13/cobra"
)

type options struct {
	message      string
	conversation string
	systemPrompt string
	model        string
	configPath   string
	debug        bool
}

func NewAskCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Run a completion from the command line",
		Example: `  ethicall ask -m "Is it fine to share this customer list in #general?"
  ethicall ask --conversation thread.json
  ethicall ask`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return askCmd(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Send a single message (non-interactive mode)")
	cmd.Flags().StringVar(&opts.conversation, "conversation", "",
		"JSON file holding an array of {\"role\", \"content\"} messages")
	cmd.Flags().StringVar(&opts.systemPrompt, "system", "", "Override the system prompt")
	cmd.Flags().StringVar(&opts.model, "model", "", "Override the model")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: ~/.ethicall/config.json)")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
