package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arjun/wayfarer/internal/state"
)

// Gateway collects externally supplied input for a suspended planning run
// and delivers notifications about finished plans.
type Gateway interface {
	// Ask delivers the interruption's question and blocks until an
	// answer arrives or ctx expires.
	Ask(ctx context.Context, req state.HumanRequest) (state.HumanInput, error)
	Notify(text string) error
}

// ConsoleGateway reads answers from the terminal.
type ConsoleGateway struct {
	In  io.Reader
	Out io.Writer
}

func NewConsoleGateway() *ConsoleGateway {
	return &ConsoleGateway{In: os.Stdin, Out: os.Stdout}
}

func (g *ConsoleGateway) Ask(ctx context.Context, req state.HumanRequest) (state.HumanInput, error) {
	fmt.Fprintf(g.Out, "\n%s\n> ", req.Prompt)

	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(g.In).ReadString('\n')
		if err != nil {
			errs <- err
			return
		}
		answers <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return state.HumanInput{}, ctx.Err()
	case err := <-errs:
		return state.HumanInput{}, err
	case answer := <-answers:
		return state.HumanInput{Field: req.Field, Value: answer}, nil
	}
}

func (g *ConsoleGateway) Notify(text string) error {
	_, err := fmt.Fprintln(g.Out, text)
	return err
}
