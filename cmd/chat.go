package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DonatoReis/lynx/internal/engine"
	"github.com/DonatoReis/lynx/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive conversation in the terminal",
	Long:  "Presents the questionnaire on stdin/stdout and streams the recommendation when it completes. /reset restarts the conversation, /quit exits, /reload re-reads the questionnaire file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := loadQuestionnaire()
		if err != nil {
			return err
		}

		sink := &terminalSink{out: os.Stdout, done: make(chan struct{}, 1)}
		runner := initRunner(st, q)
		eng := engine.New(*q, sink, runner.Run)

		eng.Start(ctx)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(os.Stdout, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())

			switch line {
			case "":
				continue
			case "/quit":
				return nil
			case "/reset":
				eng.Reset()
				eng.Start(ctx)
				continue
			case "/reload":
				q, err = loadQuestionnaire()
				if err != nil {
					fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
					continue
				}
				runner = initRunner(st, q)
				eng = engine.New(*q, sink, runner.Run)
				eng.Start(ctx)
				continue
			}

			if eng.Submit(ctx, line) {
				// Block input until the pipeline delivers its terminal event.
				<-sink.done
			}
		}
	},
}

// terminalSink renders presentation events as plain text.
type terminalSink struct {
	out      *os.File
	done     chan struct{}
	streamed bool
}

func (t *terminalSink) ShowMessage(text string, isUser bool, options []string) {
	if isUser {
		return
	}
	fmt.Fprintf(t.out, "\nLynx: %s\n", text)
	if len(options) > 0 {
		fmt.Fprintf(t.out, "      [%s]\n", strings.Join(options, " | "))
	}
}

func (t *terminalSink) StreamChunk(text string) {
	if !t.streamed {
		fmt.Fprint(t.out, "\nLynx: ")
		t.streamed = true
	}
	fmt.Fprint(t.out, text)
}

func (t *terminalSink) ShowResult(text string) {
	if t.streamed {
		// The text was already streamed chunk by chunk.
		fmt.Fprintln(t.out)
		t.streamed = false
	} else {
		fmt.Fprintf(t.out, "\nLynx: %s\n", text)
	}
	t.signal()
}

func (t *terminalSink) ShowError(text string) {
	fmt.Fprintf(t.out, "\nLynx: %s\n", text)
	t.signal()
}

func (t *terminalSink) signal() {
	select {
	case t.done <- struct{}{}:
	default:
	}
}

var _ model.EventSink = (*terminalSink)(nil)

func init() {
	rootCmd.AddCommand(chatCmd)
}
