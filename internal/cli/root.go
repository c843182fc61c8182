// Package cli implements kanbanctl, a command line client that drives a
// kanbanflow board through the same optimistic drop protocol the web UI uses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kanbanflow/internal/board"
	"kanbanflow/internal/client"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	serverURL string
	output    string
	policy    string
	verbose   bool
}

// NewRootCommand builds the command tree. configPath is where login stores
// the token; an empty path disables saving.
func NewRootCommand(initial Config, configPath string, stdout, stderr io.Writer) *cobra.Command {
	cfg := initial
	flags := globalFlags{
		serverURL: initial.ServerURL,
		output:    string(initial.Output),
		policy:    initial.Policy,
	}
	env := &cmdEnv{cfg: &cfg, configPath: configPath, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "kanbanctl",
		Short: "Work with kanbanflow boards from the terminal.",
		Long: strings.TrimSpace(`kanbanctl lists boards, shows their columns and moves cards between them
against the kanbanflow API. Moves are checked against the kanban flow
locally before anything is sent.`),
		Example: strings.TrimSpace(`kanbanctl login --email me@example.com --password secret
kanbanctl boards
kanbanctl board show <board-id>
kanbanctl card move <board-id> <card-id> --to Done
kanbanctl watch <board-id>`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return applyGlobalFlags(env, flags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.serverURL, "server-url", flags.serverURL, "Backend API base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&flags.output, "output", flags.output, "Output format: text or json")
	root.PersistentFlags().StringVar(&flags.policy, "policy", flags.policy, "Concurrent write policy: last-writer-wins or reject-stale")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log protocol decisions to stderr")

	root.AddCommand(
		newLoginCommand(env),
		newBoardsCommand(env),
		newBoardCommand(env),
		newCardCommand(env),
		newColumnCommand(env),
		newWatchCommand(env),
	)
	return root
}

type cmdEnv struct {
	cfg        *Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	policy     board.Policy
	logger     *slog.Logger
}

func applyGlobalFlags(env *cmdEnv, flags globalFlags) error {
	output := strings.TrimSpace(flags.output)
	if !isValidOutput(output) {
		return &cliError{status: http.StatusBadRequest, message: fmt.Sprintf("invalid --output: %s", output)}
	}
	policy, err := parsePolicy(strings.TrimSpace(flags.policy))
	if err != nil {
		return badRequest(err)
	}

	env.cfg.ServerURL = strings.TrimSpace(flags.serverURL)
	env.cfg.Output = Output(output)
	env.policy = policy
	if env.cfg.ServerURL == "" {
		return &cliError{status: http.StatusBadRequest, message: "--server-url cannot be empty"}
	}

	level := slog.LevelError
	if flags.verbose {
		level = slog.LevelDebug
	}
	env.logger = slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (e *cmdEnv) client() (*client.Client, error) {
	c, err := client.New(e.cfg.ServerURL, client.WithToken(e.cfg.Token))
	if err != nil {
		return nil, badRequest(err)
	}
	return c, nil
}

// loadBoard fetches a board and wires a protocol to it.
func (e *cmdEnv) loadBoard(ctx context.Context, ref string) (*client.Client, *board.Board, *board.Protocol, error) {
	boardID, err := uuid.Parse(ref)
	if err != nil {
		return nil, nil, nil, badRequest(fmt.Errorf("invalid board id %q", ref))
	}
	c, err := e.client()
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := board.Load(ctx, c, boardID)
	if err != nil {
		return nil, nil, nil, wrapError(err)
	}
	p := board.NewProtocol(b, c, board.WithPolicy(e.policy), board.WithLogger(e.logger))
	return c, b, p, nil
}

func newLoginCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the token.",
		Long:  "Exchanges credentials for a token and stores it in the config file. With --name a new account is registered first.",
		Example: strings.TrimSpace(`kanbanctl login --email me@example.com --password secret
kanbanctl login --name Ann --email ann@example.com --password secret`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")

			c, err := env.client()
			if err != nil {
				return err
			}
			var user client.User
			if name = strings.TrimSpace(name); name != "" {
				user, err = c.Register(cmd.Context(), name, email, password)
			} else {
				user, err = c.Login(cmd.Context(), email, password)
			}
			if err != nil {
				return wrapError(err)
			}

			env.cfg.Token = c.Token()
			if env.configPath != "" {
				stored, err := LoadConfigFile(env.configPath)
				if err != nil {
					return wrapError(err)
				}
				stored.ServerURL = env.cfg.ServerURL
				stored.Token = env.cfg.Token
				if err := SaveConfigFile(env.configPath, stored); err != nil {
					return wrapError(err)
				}
			}

			if env.cfg.Output == OutputJSON {
				return writeJSON(env.stdout, user)
			}
			_, err = fmt.Fprintf(env.stdout, "logged in as %s (%s)\n", user.Name, user.Email)
			return err
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	cmd.Flags().String("name", "", "Register a new account with this display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newBoardsCommand(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:     "boards",
		Aliases: []string{"ls"},
		Short:   "List owned and shared boards.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := env.client()
			if err != nil {
				return err
			}
			boards, err := c.ListBoards(cmd.Context())
			if err != nil {
				return wrapError(err)
			}
			return printBoards(env.cfg.Output, env.stdout, boards)
		},
	}
}

func newBoardCommand(env *cmdEnv) *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect a board.",
	}
	showCmd := &cobra.Command{
		Use:     "show BOARD",
		Aliases: []string{"get"},
		Short:   "Print a board with its columns and cards.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, _, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printBoard(env.cfg.Output, env.stdout, b)
		},
	}
	boardCmd.AddCommand(showCmd)
	return boardCmd
}

func newCardCommand(env *cmdEnv) *cobra.Command {
	cardCmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"cards"},
		Short:   "Create, move and delete cards.",
	}

	moveCmd := &cobra.Command{
		Use:   "move BOARD CARD",
		Short: "Move a card within or across columns.",
		Long: strings.TrimSpace(`Moves a card the way a drag and drop would. The kanban flow and the
destination capacity are checked before anything is sent. A move the backend
refuses is undone locally and reported.`),
		Example: strings.TrimSpace(`kanbanctl card move <board> <card> --to "In progress"
kanbanctl card move <board> <card> --position 1
kanbanctl --policy reject-stale card move <board> <card> --to Done --position 3`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			position, _ := cmd.Flags().GetInt("position")
			if position < 0 {
				return badRequest(errors.New("--position must be 1 or greater"))
			}
			cardID, err := uuid.Parse(args[1])
			if err != nil {
				return badRequest(fmt.Errorf("invalid card id %q", args[1]))
			}

			_, b, p, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			drop, err := planDrop(b.Snapshot(), cardID, to, position)
			if err != nil {
				return err
			}
			if err := p.Drop(cmd.Context(), drop); err != nil {
				return wrapError(err)
			}
			return printBoard(env.cfg.Output, env.stdout, b)
		},
	}
	moveCmd.Flags().String("to", "", "Destination column id or name (default: the card's column)")
	moveCmd.Flags().Int("position", 0, "1-based destination position (default: bottom)")

	addCmd := &cobra.Command{
		Use:     "add BOARD",
		Aliases: []string{"create", "new"},
		Short:   "Create a card at the bottom of a column.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnRef, _ := cmd.Flags().GetString("column")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetString("priority")

			c, b, _, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := b.Snapshot()
			idx, err := findColumn(snap, columnRef)
			if err != nil {
				return err
			}

			in := client.CardInput{ColumnID: snap[idx].ID.String(), Title: &title}
			if description != "" {
				in.Description = &description
			}
			if priority != "" {
				in.Priority = &priority
			}
			card, err := c.CreateCard(cmd.Context(), in)
			if err != nil {
				return wrapError(err)
			}
			if err := b.AddCard(card); err != nil {
				return wrapError(err)
			}
			return printCard(env.cfg.Output, env.stdout, card)
		},
	}
	addCmd.Flags().StringP("column", "c", "", "Column id or name")
	addCmd.Flags().StringP("title", "t", "", "Card title")
	addCmd.Flags().StringP("description", "d", "", "Card description")
	addCmd.Flags().String("priority", "", "none, low, medium or high")
	_ = addCmd.MarkFlagRequired("column")
	_ = addCmd.MarkFlagRequired("title")

	editCmd := &cobra.Command{
		Use:     "edit BOARD CARD",
		Aliases: []string{"update"},
		Short:   "Change a card's title, description or priority.",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := uuid.Parse(args[1])
			if err != nil {
				return badRequest(fmt.Errorf("invalid card id %q", args[1]))
			}
			var in client.CardInput
			for name, dst := range map[string]**string{"title": &in.Title, "description": &in.Description, "priority": &in.Priority} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					*dst = &v
				}
			}
			if in.Title == nil && in.Description == nil && in.Priority == nil {
				return badRequest(errors.New("nothing to change, pass --title, --description or --priority"))
			}

			c, b, _, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			card, err := c.UpdateCard(cmd.Context(), cardID, in)
			if err != nil {
				return wrapError(err)
			}
			if err := b.UpdateCard(card); err != nil {
				return wrapError(err)
			}
			return printCard(env.cfg.Output, env.stdout, card)
		},
	}
	editCmd.Flags().StringP("title", "t", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().String("priority", "", "none, low, medium or high")

	rmCmd := &cobra.Command{
		Use:     "rm BOARD CARD",
		Aliases: []string{"delete"},
		Short:   "Delete a card.",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := uuid.Parse(args[1])
			if err != nil {
				return badRequest(fmt.Errorf("invalid card id %q", args[1]))
			}
			c, b, _, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.DeleteCard(cmd.Context(), cardID); err != nil {
				return wrapError(err)
			}
			if err := b.RemoveCard(cardID); err != nil {
				return wrapError(err)
			}
			return printBoard(env.cfg.Output, env.stdout, b)
		},
	}

	cardCmd.AddCommand(moveCmd, addCmd, editCmd, rmCmd)
	return cardCmd
}

func newColumnCommand(env *cmdEnv) *cobra.Command {
	columnCmd := &cobra.Command{
		Use:     "column",
		Aliases: []string{"columns", "col"},
		Short:   "Reorder columns.",
	}
	moveCmd := &cobra.Command{
		Use:     "move BOARD COLUMN",
		Short:   "Move a column to a new position on the board.",
		Example: `kanbanctl column move <board> Review --position 2`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, _ := cmd.Flags().GetInt("position")
			_, b, p, err := env.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := b.Snapshot()
			from, err := findColumn(snap, args[1])
			if err != nil {
				return err
			}
			if position < 1 || position > len(snap) {
				return badRequest(fmt.Errorf("--position must be between 1 and %d", len(snap)))
			}
			if err := p.MoveColumn(cmd.Context(), board.ColumnMove{FromIndex: from, ToIndex: position - 1}); err != nil {
				return wrapError(err)
			}
			return printBoard(env.cfg.Output, env.stdout, b)
		},
	}
	moveCmd.Flags().Int("position", 0, "1-based destination position")
	_ = moveCmd.MarkFlagRequired("position")
	columnCmd.AddCommand(moveCmd)
	return columnCmd
}

func newWatchCommand(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:     "watch BOARD",
		Aliases: []string{"events"},
		Short:   "Stream a board's realtime events.",
		Long:    "Connects to the board's websocket and prints every change until interrupted.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(args[0]); err != nil {
				return badRequest(fmt.Errorf("invalid board id %q", args[0]))
			}
			c, err := env.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.EventsURL(args[0]), nil)
			if err != nil {
				status := http.StatusBadGateway
				if resp != nil {
					status = resp.StatusCode
				}
				return &cliError{status: status, message: err.Error()}
			}
			defer conn.Close()

			// ReadJSON only returns on socket activity, so close the
			// connection to unblock it on interrupt.
			go func() {
				<-ctx.Done()
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interrupt"),
					time.Now().Add(500*time.Millisecond),
				)
				_ = conn.Close()
			}()

			for {
				var event map[string]any
				if err := conn.ReadJSON(&event); err != nil {
					if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return &cliError{status: http.StatusBadGateway, message: err.Error()}
				}

				line, err := FormatWatchLine(env.cfg.Output, event)
				if err != nil {
					return &cliError{status: http.StatusInternalServerError, message: err.Error()}
				}
				if _, err := fmt.Fprintln(env.stdout, line); err != nil {
					return &cliError{status: http.StatusInternalServerError, message: err.Error()}
				}
			}
		},
	}
}

// planDrop turns a "move card to column at position" request into the drop
// event a drag would have produced. position 0 means the bottom.
func planDrop(snap []board.Column, cardID uuid.UUID, to string, position int) (board.Drop, error) {
	fromCol, fromIdx := -1, -1
	for i, col := range snap {
		for j, card := range col.Cards {
			if card.ID == cardID {
				fromCol, fromIdx = i, j
			}
		}
	}
	if fromCol < 0 {
		return board.Drop{}, &cliError{status: http.StatusNotFound, message: fmt.Sprintf("card %s not found on board", cardID)}
	}

	toCol := fromCol
	if strings.TrimSpace(to) != "" {
		idx, err := findColumn(snap, to)
		if err != nil {
			return board.Drop{}, err
		}
		toCol = idx
	}

	last := len(snap[toCol].Cards)
	if toCol == fromCol {
		last--
	}
	toIdx := last
	if position > 0 {
		toIdx = min(position-1, last)
	}

	return board.Drop{
		FromColumn: snap[fromCol].ID,
		ToColumn:   snap[toCol].ID,
		FromIndex:  fromIdx,
		ToIndex:    toIdx,
	}, nil
}

// findColumn resolves a column by id or, case-insensitively, by name.
func findColumn(snap []board.Column, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		for i, col := range snap {
			if col.ID == id {
				return i, nil
			}
		}
	}
	match := -1
	for i, col := range snap {
		if strings.EqualFold(col.Name, ref) {
			if match >= 0 {
				return -1, badRequest(fmt.Errorf("column name %q is ambiguous, use its id", ref))
			}
			match = i
		}
	}
	if match < 0 {
		return -1, &cliError{status: http.StatusNotFound, message: fmt.Sprintf("column %q not found", ref)}
	}
	return match, nil
}
