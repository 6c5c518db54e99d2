package ask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal"
	"github.com/tinyland-inc/ethicall/pkg/completion"
	"github.com/tinyland-inc/ethicall/pkg/logger"
	"github.com/tinyland-inc/ethicall/pkg/providers"
	"github.com/tinyland-inc/ethicall/pkg/providers/protocoltypes"
)

type completer interface {
	Complete(ctx context.Context, conversation []completion.Message, opts ...completion.Option) (string, error)
}

func askCmd(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := internal.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if opts.model != "" {
		cfg.LLM.Model = opts.model
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}

	provider, modelID, err := providers.CreateProvider(cfg)
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	client := completion.NewClient(provider, modelID,
		completion.WithDefaultSystemPrompt(cfg.LLM.SystemPrompt),
		completion.WithChatOptions(providers.ChatOptions(cfg)),
	)

	var callOpts []completion.Option
	if opts.systemPrompt != "" {
		callOpts = append(callOpts, completion.WithSystemPrompt(opts.systemPrompt))
	}

	history, err := loadConversation(opts.conversation)
	if err != nil {
		return err
	}

	if opts.message != "" || opts.conversation != "" {
		if opts.message != "" {
			history = append(history, completion.Message{Role: protocoltypes.RoleUser, Content: opts.message})
		}
		reply, err := client.Complete(ctx, history, callOpts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s %s\n", internal.Logo, reply)
		return nil
	}

	fmt.Fprintf(out, "%s Interactive mode (Ctrl+C to exit)\n\n", internal.Logo)
	return interactiveMode(ctx, client, history, callOpts, in, out)
}

// loadConversation reads a JSON conversation; an empty path yields an empty
// history.
func loadConversation(path string) ([]completion.Message, error) {
	if path == "" {
		return []completion.Message{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conversation: %w", err)
	}
	conv, err := completion.ParseConversation(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conv, nil
}

func interactiveMode(
	ctx context.Context,
	client completer,
	history []completion.Message,
	callOpts []completion.Option,
	in io.Reader,
	out io.Writer,
) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", internal.Logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".ethicall_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(in),
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		history, err = exchange(ctx, client, history, input, callOpts)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s %s\n\n", internal.Logo, history[len(history)-1].Content)
	}
}

// exchange runs one turn. History only grows when the completion succeeds.
func exchange(
	ctx context.Context,
	client completer,
	history []completion.Message,
	input string,
	callOpts []completion.Option,
) ([]completion.Message, error) {
	next := append(history[:len(history):len(history)], completion.Message{Role: protocoltypes.RoleUser, Content: input})
	reply, err := client.Complete(ctx, next, callOpts...)
	if err != nil {
		return history, err
	}
	return append(next, completion.Message{Role: protocoltypes.RoleAssistant, Content: reply}), nil
}
