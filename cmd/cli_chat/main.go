package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"taste-test/internal/auth"
	"taste-test/internal/baas"
	"taste-test/internal/config"
	"taste-test/internal/domain"
	"taste-test/internal/llm"
	"taste-test/internal/ocr"
	"taste-test/internal/service"
	"taste-test/internal/sessionstore"
	"taste-test/internal/transcript"
	"taste-test/internal/ui"
)

// app agrupa lo que necesita cada pantalla de la terminal.
type app struct {
	ctx    context.Context
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
	auth   *auth.Service
	chat   *service.ConversationService
	state  ui.State

	convID    string
	stopWatch func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	store, err := sessionstore.Open(cfg.SessionDBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	backend := baas.NewClient(cfg.BaaSURL, cfg.BaaSAnonKey, 30*time.Second, logger)
	authSvc := auth.NewService(logger, backend, store)

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, logger)
	recognizer := ocr.NewTesseract(cfg.OCRCommand, cfg.OCRLanguage)
	chatSvc := service.NewConversationService(logger, transcript.NewStore(nil), llmClient, recognizer)

	a := &app{
		ctx:    ctx,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		logger: logger,
		auth:   authSvc,
		chat:   chatSvc,
		state:  ui.Initial(authSvc.RestoreSession(ctx)),
	}
	if err := a.run(); err != nil && err != io.EOF {
		log.Fatal(err)
	}
}

func (a *app) run() error {
	defer a.closeConversation()
	for {
		if a.ctx.Err() != nil {
			return nil
		}
		var err error
		switch a.state.Screen {
		case ui.ScreenSignIn:
			err = a.signInScreen()
		case ui.ScreenSignUp:
			err = a.signUpScreen()
		case ui.ScreenChat:
			err = a.chatScreen()
		}
		if err == errQuit {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *app) apply(ev ui.Event) {
	next, ok := a.state.Apply(ev)
	if !ok {
		a.logger.Debug("ignored ui event", zap.Int("event", int(ev)), zap.String("state", a.state.String()))
		return
	}
	a.state = next
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) signInScreen() error {
	fmt.Fprintln(a.out, "\nWelcome Back 👋")
	fmt.Fprintln(a.out, "Type /signup to create an account or /quit to exit.")
	email, err := a.prompt("Email: ")
	if err != nil {
		return err
	}
	switch strings.TrimSpace(email) {
	case "/signup":
		a.apply(ui.EventShowSignUp)
		return nil
	case "/quit":
		return errQuit
	}
	password, err := a.prompt("Password: ")
	if err != nil {
		return err
	}
	if err := a.auth.SignIn(a.ctx, email, password); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return nil
	}
	a.apply(ui.EventSignedIn)
	return nil
}

func (a *app) signUpScreen() error {
	fmt.Fprintln(a.out, "\nWelcome 👋")
	fmt.Fprintln(a.out, "Type /signin to go back.")
	fields := make([]string, 0, 4)
	for _, label := range []string{"First Name: ", "Last Name: ", "Email: ", "Password: "} {
		value, err := a.prompt(label)
		if err != nil {
			return err
		}
		if strings.TrimSpace(value) == "/signin" {
			a.apply(ui.EventShowSignIn)
			return nil
		}
		fields = append(fields, value)
	}
	if err := a.auth.SignUp(a.ctx, fields[0], fields[1], fields[2], fields[3]); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return nil
	}
	a.apply(ui.EventSignedIn)
	return nil
}

func (a *app) chatScreen() error {
	if a.convID == "" {
		if err := a.openConversation(); err != nil {
			return err
		}
	}

	line, err := a.prompt("> ")
	if err != nil {
		return err
	}
	cmd := parseCommand(line)
	switch cmd.name {
	case "quit":
		return errQuit
	case "menu":
		a.apply(ui.EventToggleSidePanel)
		if a.state.Overlay == ui.OverlaySidePanel {
			a.printSidePanel()
		}
	case "signout":
		a.auth.SignOut(a.ctx)
		a.closeConversation()
		a.apply(ui.EventSignedOut)
	case "photo":
		a.apply(ui.EventOpenAttachMenu)
		a.attachPhoto(cmd.arg)
	case "":
		a.sendText(line)
	default:
		fmt.Fprintf(a.out, "unknown command /%s (try /photo <path>, /menu, /signout, /quit)\n", cmd.name)
	}
	return nil
}

func (a *app) printSidePanel() {
	name := "Guest"
	if profile, ok := a.auth.Profile(); ok && profile.FullName() != "" {
		name = profile.FullName()
	} else if session, ok := a.auth.Session(); ok {
		name = session.User.Email
	}
	fmt.Fprintf(a.out, "── %s ──\n/signout  sign out\n/menu     close this panel\n", name)
}

func (a *app) attachPhoto(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		var err error
		path, err = a.prompt("Photo path (empty to cancel): ")
		if err != nil {
			a.apply(ui.EventPickCancelled)
			return
		}
		path = strings.TrimSpace(path)
	}
	if path == "" {
		a.apply(ui.EventPickCancelled)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.out, "could not read %s: %v\n", path, err)
		a.apply(ui.EventPickCancelled)
		return
	}
	a.apply(ui.EventImagePicked)

	img := domain.Image{ContentType: http.DetectContentType(data), Data: data}
	if _, err := a.chat.SubmitImage(a.ctx, a.convID, img); err != nil {
		fmt.Fprintln(a.out, err.Error())
	}
}

func (a *app) sendText(text string) {
	if _, err := a.chat.SubmitUserText(a.ctx, a.convID, text); err != nil {
		fmt.Fprintln(a.out, err.Error())
	}
}

// openConversation abre la conversacion y empieza a imprimir cada entrada nueva.
func (a *app) openConversation() error {
	userID := ""
	if session, ok := a.auth.Session(); ok {
		userID = session.User.ID
	}
	conv, err := a.chat.CreateConversation(a.ctx, userID)
	if err != nil {
		return err
	}
	updates, cancel, err := a.chat.Subscribe(a.ctx, conv.ID)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range updates {
			fmt.Fprint(a.out, renderEntry(entry))
		}
	}()
	a.convID = conv.ID
	a.stopWatch = func() {
		cancel()
		<-done
	}
	fmt.Fprintln(a.out, "\nSnap a menu with /photo <path>, or just ask. /menu opens the side panel.")
	return nil
}

func (a *app) closeConversation() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	a.stopWatch = nil
	a.convID = ""
}
