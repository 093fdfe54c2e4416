// ABOUTME: AI agent CLI commands
// ABOUTME: Manage agent personas, their chat history, and the interactive chat
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/models"
	"golang.org/x/term"
)

// AgentAddCommand creates an agent persona.
func AgentAddCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent add", flag.ContinueOnError)
	name := fs.String("name", "", "Agent name (required)")
	description := fs.String("description", "", "Context the agent works with")
	prompt := fs.String("prompt", "", "System prompt (personality)")
	model := fs.String("model", "", "Gemini model id")
	temperature := fs.Float64("temperature", 0, "Sampling temperature")
	maxTokens := fs.Int("max-tokens", 0, "Maximum reply tokens")
	triggers := fs.String("triggers", "", "Comma-separated trigger events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	agent, err := app.Agents.Add(models.AiAgent{
		Name:          *name,
		Description:   *description,
		SystemPrompt:  *prompt,
		Model:         *model,
		Temperature:   *temperature,
		MaxTokens:     *maxTokens,
		TriggerEvents: splitList(*triggers),
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Agent created: %s (ID: %s)\n", agent.Name, agent.ID)
	fmt.Fprintf(app.Out, "  Model: %s (temperature %.1f, %d tokens)\n", agent.Model, agent.Temperature, agent.MaxTokens)
	return nil
}

// AgentUpdateCommand edits an agent. Only flags given on the command line
// change; --triggers "" clears the trigger list.
func AgentUpdateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent update", flag.ContinueOnError)
	name := fs.String("name", "", "New name")
	description := fs.String("description", "", "New context")
	prompt := fs.String("prompt", "", "New system prompt")
	model := fs.String("model", "", "New Gemini model id")
	temperature := fs.Float64("temperature", 0, "New sampling temperature (0 to 2)")
	maxTokens := fs.Int("max-tokens", 0, "New maximum reply tokens")
	triggers := fs.String("triggers", "", "Comma-separated trigger events, replacing the current list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("agent ID required")
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["temperature"] && (*temperature < 0 || *temperature > 2) {
		return fmt.Errorf("--temperature must be between 0 and 2")
	}
	if set["max-tokens"] && *maxTokens <= 0 {
		return fmt.Errorf("--max-tokens must be positive")
	}

	agent, err := app.Agents.Get(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("agent not found: %s", fs.Arg(0))
	}

	if *name != "" {
		agent.Name = *name
	}
	if set["description"] {
		agent.Description = *description
	}
	if *prompt != "" {
		agent.SystemPrompt = *prompt
	}
	if *model != "" {
		agent.Model = *model
	}
	if set["temperature"] {
		agent.Temperature = *temperature
	}
	if set["max-tokens"] {
		agent.MaxTokens = *maxTokens
	}
	if set["triggers"] {
		agent.TriggerEvents = splitList(*triggers)
	}

	if _, err := app.Agents.Update(agent); err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Agent updated: %s\n", agent.Name)
	fmt.Fprintf(app.Out, "  Model: %s (temperature %.1f, %d tokens)\n", agent.Model, agent.Temperature, agent.MaxTokens)
	return nil
}

// AgentListCommand lists agents.
func AgentListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	agents := app.Agents.List()
	if len(agents) == 0 {
		fmt.Fprintln(app.Out, "No agents found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMODEL\tACTIVE\tMESSAGES\tLAST USED\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t--------\t---------\t--")
	for _, a := range agents {
		active := "no"
		if a.IsActive {
			active = "yes"
		}
		lastUsed := "-"
		if a.LastUsed != nil {
			lastUsed = a.LastUsed.Local().Format("2006-01-02 15:04")
		}
		stats := app.History.Stats(a.ID)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", a.Name, a.Model, active, stats.Total, lastUsed, a.ID)
	}
	return w.Flush()
}

// AgentToggleCommand flips an agent's active flag.
func AgentToggleCommand(app *App, args []string) error {
	id, err := agentIDArg("agent toggle", args)
	if err != nil {
		return err
	}

	ok, err := app.Agents.ToggleActive(id)
	if err != nil {
		return fmt.Errorf("failed to toggle agent: %w", err)
	}
	if !ok {
		return fmt.Errorf("agent not found: %s", id)
	}

	agent, err := app.Agents.Get(id)
	if err != nil {
		return err
	}
	state := "inactive"
	if agent.IsActive {
		state = "active"
	}
	fmt.Fprintf(app.Out, "✓ Agent %s is now %s\n", agent.Name, state)
	return nil
}

// AgentDeleteCommand deletes an agent. Its chat history is kept unless --purge is set.
func AgentDeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent delete", flag.ContinueOnError)
	purge := fs.Bool("purge", false, "Also clear the agent's chat history")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("agent ID required")
	}
	id := fs.Arg(0)

	deleted, err := app.Agents.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if !deleted {
		return fmt.Errorf("agent not found: %s", id)
	}
	if *purge {
		if err := app.History.Clear(id); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
	}

	fmt.Fprintf(app.Out, "✓ Agent deleted: %s\n", id)
	return nil
}

// AgentHistoryCommand prints an agent's stored conversation.
func AgentHistoryCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent history", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Only show the newest N messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("agent ID required")
	}
	id := fs.Arg(0)

	messages := app.History.History(id)
	if *limit > 0 && len(messages) > *limit {
		messages = messages[len(messages)-*limit:]
	}
	if len(messages) == 0 {
		fmt.Fprintln(app.Out, "No messages")
		return nil
	}

	name := id
	if agent, err := app.Agents.Get(id); err == nil {
		name = agent.Name
	}
	for _, m := range messages {
		printMessage(app, name, m)
	}

	stats := app.History.Stats(id)
	fmt.Fprintf(app.Out, "\n%d messages (%d yours, %d from %s)\n", stats.Total, stats.User, stats.Agent, name)
	return nil
}

// AgentClearHistoryCommand clears one agent's history, or every agent's with --all.
func AgentClearHistoryCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agent clear-history", flag.ContinueOnError)
	all := fs.Bool("all", false, "Clear the history of every agent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *all {
		if err := app.History.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(app.Out, "✓ All chat history cleared")
		return nil
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("agent ID required (or --all)")
	}
	if err := app.History.Clear(fs.Arg(0)); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ History cleared for %s\n", fs.Arg(0))
	return nil
}

// AgentChatCommand opens an interactive chat with an agent. With --message it sends
// one message, prints the reply, and exits.
func AgentChatCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("agent chat", flag.ContinueOnError)
	message := fs.String("message", "", "Send a single message and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("agent ID required")
	}

	sess, err := app.Chat.Open(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	agent := sess.Agent()

	if *message != "" {
		reply, err := sess.Send(ctx, *message)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.Out, reply.Content)
		return nil
	}

	interactive := isTerminal(app.In)
	if interactive {
		status := "conectado"
		if !sess.Connected() {
			status = "desconectado"
		}
		fmt.Fprintf(app.Out, "Chat com %s (%s). Comandos: /history, /clear, /reconnect, /exit\n\n", agent.Name, status)
	}

	scanner := bufio.NewScanner(app.In)
	for {
		if interactive {
			fmt.Fprint(app.Out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			for _, m := range sess.History() {
				printMessage(app, agent.Name, m)
			}
			continue
		case "/clear":
			if err := sess.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(app.Out, "✓ Histórico limpo")
			continue
		case "/reconnect":
			if sess.Reconnect(ctx) {
				fmt.Fprintln(app.Out, "✓ Conectado")
			} else {
				fmt.Fprintln(app.Out, "✗ Ainda desconectado")
			}
			continue
		}

		reply, err := sess.Send(ctx, line)
		if errors.Is(err, chat.ErrBusy) {
			fmt.Fprintln(app.Out, "Aguarde a resposta anterior.")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "%s: %s\n\n", agent.Name, reply.Content)
	}
	return scanner.Err()
}

func printMessage(app *App, agentName string, m models.ChatMessage) {
	who := "Você"
	if m.Sender == models.SenderAgent {
		who = agentName
	}
	fmt.Fprintf(app.Out, "[%s] %s: %s\n", m.Timestamp.Local().Format("02/01 15:04"), who, m.Content)
}

func agentIDArg(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		return "", fmt.Errorf("agent ID required")
	}
	return fs.Arg(0), nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
