package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/studyswap/studyswap-go/internal/client"
	"github.com/studyswap/studyswap-go/internal/config"
	"github.com/studyswap/studyswap-go/internal/models"
	"github.com/studyswap/studyswap-go/internal/pkg/log"
	"github.com/studyswap/studyswap-go/internal/session"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const usageText = `usage: studyswap [--config path] <command> [args]

commands:
  login <email>                       вход (пароль запрашивается с stdin)
  register <email> <first> <last> <university>
                                      регистрация нового аккаунта
  whoami                              текущий профиль и срок действия токена
  logout                              выход и очистка локальных токенов

  products [page]                     лента объявлений
  own [page]                          собственные объявления
  search <query> [category]           поиск объявлений
  product <id>                        карточка объявления
  upload <title> <price> <category> <description> [image...]
                                      создать объявление
  delete <id>                         удалить объявление

  chats                               список диалогов
  chat <product-id>                   открыть диалог по объявлению
  messages <chat-id>                  история диалога
  send <chat-id> <text...>            отправить сообщение
`

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := setupLogger(cfg.Env)
	slog.SetDefault(lg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = log.Into(ctx, lg)

	if err := run(ctx, cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return errors.New("no command given")
	}

	storePath, err := cfg.Tokens.StorePath()
	if err != nil {
		return err
	}

	store, err := tokens.NewFileStore(storePath, cfg.Tokens.Secret)
	if err != nil {
		return err
	}

	api, err := client.New(cfg.API, store)
	if err != nil {
		return err
	}

	sess := session.New(api)
	if err := sess.Restore(ctx); err != nil {
		return err
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		return cmdLogin(ctx, sess, rest)
	case "register":
		return cmdRegister(ctx, sess, rest)
	case "whoami":
		return cmdWhoami(ctx, sess, store)
	case "logout":
		return sess.Logout(ctx)
	case "products":
		return cmdProducts(ctx, rest, api.Products)
	case "own":
		return cmdProducts(ctx, rest, api.OwnProducts)
	case "search":
		return cmdSearch(ctx, api, rest)
	case "product":
		return cmdProduct(ctx, api, rest)
	case "upload":
		return cmdUpload(ctx, api, rest)
	case "delete":
		return cmdDelete(ctx, api, rest)
	case "chats":
		return cmdChats(ctx, api)
	case "chat":
		return cmdChat(ctx, api, rest)
	case "messages":
		return cmdMessages(ctx, api, rest)
	case "send":
		return cmdSend(ctx, api, rest)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// renderError переводит терминальные ошибки сессии и сетевые сбои в
// понятные пользователю сообщения.
func renderError(err error) string {
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		return "session expired, please run `studyswap login` again"
	case errors.Is(err, client.ErrUnauthenticated):
		return "not logged in, run `studyswap login` first"
	case errors.Is(err, client.ErrRetryAfterRefresh):
		return "session was refreshed mid-upload, please retry the command"
	case errors.Is(err, client.ErrNetwork):
		return "network error, check your connection and API base URL"
	default:
		return "error: " + err.Error()
	}
}

func cmdLogin(ctx context.Context, sess *session.Session, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: login <email>")
	}

	fmt.Print("password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	if err := sess.Login(ctx, args[0], password); err != nil {
		return err
	}
	sess.Wait()

	u, _ := sess.Current()
	fmt.Printf("logged in as %s\n", u.Email)
	return nil
}

func cmdRegister(ctx context.Context, sess *session.Session, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: register <email> <first> <last> <university>")
	}

	fmt.Print("password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	if err := sess.Register(ctx, models.RegisterRequest{
		Email:      args[0],
		Password:   password,
		FirstName:  args[1],
		LastName:   args[2],
		University: args[3],
	}); err != nil {
		return err
	}
	sess.Wait()

	fmt.Println("registered and logged in")
	return nil
}

func cmdWhoami(ctx context.Context, sess *session.Session, store tokens.Store) error {
	if !sess.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}

	if err := sess.RefreshProfile(ctx); err != nil {
		return err
	}

	u, _ := sess.Current()
	fmt.Printf("user #%d: %s %s <%s>, %s\n",
		u.UserID, u.FirstName, u.LastName, u.Email, u.University)

	creds, err := store.Credentials(ctx)
	if err != nil {
		return err
	}
	if c, err := tokens.Decode(creds.AccessToken); err == nil {
		fmt.Printf("access token expires at %s\n", c.ExpiresAt.Local())
	}

	return nil
}

type productLister func(ctx context.Context, page, size int) (*models.Page[models.Product], error)

func cmdProducts(ctx context.Context, args []string, list productLister) error {
	page := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad page number %q", args[0])
		}
		page = n
	}

	out, err := list(ctx, page, 0)
	if err != nil {
		return err
	}

	printProducts(out.Content)
	fmt.Printf("page %d/%d, %d total\n", out.Number+1, out.TotalPages, out.TotalElements)
	return nil
}

func cmdSearch(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: search <query> [category]")
	}

	req := models.SearchRequest{Query: args[0]}
	if len(args) > 1 {
		req.Category = args[1]
	}

	out, err := api.SearchProducts(ctx, req, 0, 0)
	if err != nil {
		return err
	}

	printProducts(out.Content)
	return nil
}

func cmdProduct(ctx context.Context, api *client.Client, args []string) error {
	id, err := parseID(args, "usage: product <id>")
	if err != nil {
		return err
	}

	p, err := api.ProductByID(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s — %.2f (%s)\n", p.ID, p.Title, p.Price, p.Category)
	fmt.Println(p.Description)
	for _, img := range p.ImageURLs {
		fmt.Println("  " + api.MediaURL(img))
	}
	return nil
}

func cmdUpload(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: upload <title> <price> <category> <description> [image...]")
	}

	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad price %q", args[1])
	}

	in := models.CreateProductInput{
		Title:       args[0],
		Price:       price,
		Category:    args[2],
		Description: args[3],
	}

	for _, p := range args[4:] {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		in.Images = append(in.Images, models.ImageFile{
			Name: p,
			Data: data,
		})
	}

	p, err := api.CreateProduct(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("created product #%d\n", p.ID)
	return nil
}

func cmdDelete(ctx context.Context, api *client.Client, args []string) error {
	id, err := parseID(args, "usage: delete <id>")
	if err != nil {
		return err
	}

	if err := api.DeleteProduct(ctx, id); err != nil {
		return err
	}

	fmt.Printf("deleted product #%d\n", id)
	return nil
}

func cmdChats(ctx context.Context, api *client.Client) error {
	chats, err := api.Chats(ctx, 0, 0)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSELLER\tBUYER\tLAST MESSAGE")
	for _, c := range chats {
		last := ""
		if c.LastMessage != nil {
			last = c.LastMessage.Body
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", c.ID, c.SellerID, c.BuyerID, last)
	}
	return tw.Flush()
}

func cmdChat(ctx context.Context, api *client.Client, args []string) error {
	id, err := parseID(args, "usage: chat <product-id>")
	if err != nil {
		return err
	}

	c, err := api.CreateChat(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("chat #%d opened\n", c.ID)
	return nil
}

func cmdMessages(ctx context.Context, api *client.Client, args []string) error {
	id, err := parseID(args, "usage: messages <chat-id>")
	if err != nil {
		return err
	}

	msgs, err := api.Messages(ctx, id, 0, 0)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		fmt.Printf("[%s] #%d: %s\n", m.CreatedAt, m.SenderID, m.Body)
	}
	return nil
}

func cmdSend(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: send <chat-id> <text...>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q", args[0])
	}

	m, err := api.SendMessage(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Printf("sent message #%d\n", m.ID)
	return nil
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New(usage)
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q", args[0])
	}

	return id, nil
}

func printProducts(products []models.Product) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", p.ID, p.Title, p.Price, p.Category)
	}
	_ = tw.Flush()
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var lg *slog.Logger

	switch env {
	case envLocal:
		lg = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		lg = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		lg = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		lg = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return lg
}
