package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"ai-finance-assistant-be/internal/bootstrap"
	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/tracer"
	"ai-finance-assistant-be/pkg/agent"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	answerColor = color.New(color.FgGreen)
	routeColor  = color.New(color.Faint)
	stepColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

const help = `Commands:
  /new      start a new session
  /steps    show the reasoning steps of the last answer
  /tools    list the available tools
  /history  show this session's history
  /quit     exit
Prefix a message with !tool:<name> to force a tool.`

func main() {
	shutdownTracer := tracer.InitTracer("chat")
	defer shutdownTracer(context.Background())

	cfg := config.Load()
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	repl := &shell{container: container, session: uuid.New()}
	fmt.Println("AI Finance Assistant. Type /help for commands.")
	repl.run(ctx)
}

type shell struct {
	container *bootstrap.Container
	session   uuid.UUID
	lastSteps []agent.Step
}

func (s *shell) run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		promptColor.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/help":
			fmt.Println(help)
		case "/new":
			s.session = uuid.New()
			s.lastSteps = nil
			routeColor.Printf("new session %s\n", s.session)
		case "/steps":
			s.printSteps()
		case "/tools":
			for _, t := range s.container.AssistantService.GetTools(ctx) {
				fmt.Printf("- %s: %s\n", t.Name, t.Description)
			}
		case "/history":
			s.printHistory(ctx)
		default:
			s.send(ctx, line)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (s *shell) send(ctx context.Context, message string) {
	res, err := s.container.AssistantService.SendMessage(ctx, &dto.SendMessageRequest{SessionId: s.session, Message: message})
	if err != nil {
		errorColor.Printf("error: %v\n", err)
		return
	}
	s.lastSteps = res.Steps

	routeColor.Printf("[route=%s via %s, %d steps]\n", res.Route.Action, res.Route.Source, len(res.Steps))
	answerColor.Printf("assistant> %s\n", res.Answer)
}

func (s *shell) printSteps() {
	if len(s.lastSteps) == 0 {
		routeColor.Println("no steps")
		return
	}
	for i, st := range s.lastSteps {
		stepColor.Printf("#%d Thought: %s\n", i+1, st.Thought)
		if st.Action != "" {
			fmt.Printf("   Action: %s\n   Action Input: %s\n", st.Action, st.ActionInput)
		}
		obs := st.Observation
		if st.ObservationFailed {
			errorColor.Printf("   Observation: %s\n", obs)
			continue
		}
		fmt.Printf("   Observation: %s\n", obs)
	}
}

func (s *shell) printHistory(ctx context.Context) {
	history, err := s.container.AssistantService.GetHistory(ctx, s.session)
	if err != nil {
		routeColor.Println("empty history")
		return
	}
	for _, m := range history {
		fmt.Printf("%s %s: %s\n", m.CreatedAt.Format("15:04:05"), m.Role, m.Content)
	}
}
