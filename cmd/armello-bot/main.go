package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/auth"
	appcfg "github.com/mkovalev/armello-stats-bot/internal/config"
	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/irisfast"
	"github.com/mkovalev/armello-stats-bot/internal/match"
	"github.com/mkovalev/armello-stats-bot/internal/msgcat"
	"github.com/mkovalev/armello-stats-bot/internal/obslog"
	"github.com/mkovalev/armello-stats-bot/internal/presenter"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
	"github.com/mkovalev/armello-stats-bot/internal/report"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
	"github.com/mkovalev/armello-stats-bot/internal/stats"
	"github.com/mkovalev/armello-stats-bot/internal/storage"
	"github.com/mkovalev/armello-stats-bot/internal/title"
)

// bot bundles every service the command handlers need.
type bot struct {
	cfg       *appcfg.AppConfig
	log       *zap.Logger
	roles     *auth.Roles
	matches   *match.Service
	matchRepo match.Repository
	ledger    rating.Repository
	rebuilder *rating.Rebuilder
	titles    *title.Engine
	titleRepo title.Repository
	stats     *stats.Service
	reports   *report.Manager
	fmt       *presenter.Formatter
	out       *presenter.Presenter
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres open", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("postgres schema", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis url", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	cat, err := msgcat.New(os.Getenv("MSGCAT_OVERRIDE_DIR"))
	if err != nil {
		logger.Fatal("message catalog", zap.Error(err))
	}

	matchRepo := match.NewPostgresRepository(db)
	ledger := rating.NewPostgresRepository(db)
	titleRepo := title.NewPostgresRepository(db)

	proc := rating.NewProcessor(ledger, logger)
	b := &bot{
		cfg:       cfg,
		log:       logger,
		roles:     auth.NewRoles(cfg.OwnerUser, cfg.AdminUsers),
		matches:   match.NewService(matchRepo, proc, logger),
		matchRepo: matchRepo,
		ledger:    ledger,
		rebuilder: rating.NewRebuilder(ledger, matchRepo, proc, logger),
		titles:    title.NewEngine(ledger, titleRepo, logger),
		titleRepo: titleRepo,
		stats:     stats.NewService(ledger, matchRepo, titleRepo),
		reports: report.NewManager(
			report.NewStore(rdb, time.Duration(cfg.ReportTTLSec)*time.Second), logger),
		fmt: presenter.NewFormatter(cat),
	}

	client := irisfast.NewClient(cfg.IrisBaseURL)
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws state", zap.String("state", state.String()))
	})
	egress := irisfast.NewEgress(os.Getenv("EGRESS_MODE"), client, ws, logger)
	b.out = presenter.NewPresenter(func(room, message string) error {
		return egress.SendText(context.Background(), room, message)
	})

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || strings.TrimSpace(msg.Msg) == "" {
			return
		}
		if len(cfg.AllowedRooms) > 0 && !roomAllowed(cfg.AllowedRooms, msg.Room) {
			return
		}
		// keep the WS read loop free
		go b.handleMessage(msg)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws connect", zap.Error(err))
	}
	cancel()
	logger.Info("bot started", zap.String("prefix", cfg.BotPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}

// handleMessage routes one inbound chat message. Prefixed messages are
// commands; anything else only matters when the sender has an open report
// dialogue in this room.
func (b *bot) handleMessage(msg *irisfast.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	text := strings.TrimSpace(msg.Msg)
	if strings.HasPrefix(text, b.cfg.BotPrefix) {
		b.handleCommand(ctx, msg, strings.TrimSpace(strings.TrimPrefix(text, b.cfg.BotPrefix)))
		return
	}
	b.handleDialogue(ctx, msg, text)
}

func (b *bot) handleCommand(ctx context.Context, msg *irisfast.Message, raw string) {
	if raw == "" {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
	case "report":
		b.cmdReport(ctx, msg, args)
	case "top":
		b.cmdTop(ctx, msg, args)
	case "characters":
		b.cmdCharacters(ctx, msg)
	case "factions":
		b.cmdFactions(ctx, msg)
	case "character":
		b.cmdCharacter(ctx, msg, args)
	case "faction":
		b.cmdFaction(ctx, msg, args)
	case "profile":
		b.cmdProfile(ctx, msg, args)
	case "link":
		b.cmdLink(ctx, msg, args)
	case "titles":
		b.cmdTitles(ctx, msg)
	case "title":
		b.cmdSetTitle(ctx, msg, args)
	case "grant":
		b.cmdGrant(ctx, msg, args)
	case "remove":
		b.cmdRemove(ctx, msg, args)
	case "rebuild":
		b.cmdRebuild(ctx, msg, args)
	default:
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
	}
}

func (b *bot) send(room, text string) {
	if err := b.out.Text(room, text); err != nil {
		b.log.Error("send failed", zap.String("room", room), zap.Error(err))
	}
}

// --- report dialogue ---

func (b *bot) cmdReport(ctx context.Context, msg *irisfast.Message, args []string) {
	owner := msg.SenderID()
	if owner == "" {
		return
	}
	if len(args) > 0 && strings.EqualFold(args[0], "cancel") {
		if err := b.reports.Cancel(ctx, msg.Room, owner); err != nil {
			b.send(msg.Room, b.fmt.ReportError(err))
			return
		}
		b.send(msg.Room, b.fmt.Render("report.cancelled", nil))
		return
	}
	sess, err := b.reports.Start(ctx, msg.Room, owner, msg.Attachment)
	if err != nil {
		b.send(msg.Room, b.fmt.ReportError(err))
		return
	}
	b.send(msg.Room, b.fmt.Prompt(sess))
}

func (b *bot) handleDialogue(ctx context.Context, msg *irisfast.Message, text string) {
	owner := msg.SenderID()
	if owner == "" {
		return
	}
	sess, req, err := b.reports.Input(ctx, msg.Room, owner, text)
	if err == report.ErrNoSession {
		return // ordinary chatter, not ours
	}
	if err != nil {
		b.send(msg.Room, b.fmt.ReportError(err))
		return
	}
	if req != nil {
		recorded, err := b.matches.Submit(ctx, *req)
		if err != nil {
			b.fail(msg.Room, err)
			return
		}
		b.titles.RefreshAll(ctx)
		b.send(msg.Room, b.fmt.Saved(recorded.ID))
		return
	}
	b.send(msg.Room, b.fmt.Prompt(sess))
}

// --- leaderboards ---

func (b *bot) cmdTop(ctx context.Context, msg *irisfast.Message, args []string) {
	offset := 0
	if len(args) > 0 {
		if page, err := strconv.Atoi(args[0]); err == nil && page > 1 {
			offset = (page - 1) * b.cfg.TopLimit
		}
	}
	ranked, err := b.stats.TopPlayers(ctx, b.cfg.TopLimit, offset)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Leaderboard(b.fmt.TopHeader(), ranked, offset))
}

func (b *bot) cmdCharacters(ctx context.Context, msg *irisfast.Message) {
	rows, err := b.stats.TopCharacters(ctx, len(roster.Characters()))
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.GlobalBoard("top.characters_header", rows))
}

func (b *bot) cmdFactions(ctx context.Context, msg *irisfast.Message) {
	rows, err := b.stats.TopFactions(ctx, len(roster.Factions()))
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.GlobalBoard("top.factions_header", rows))
}

func (b *bot) cmdCharacter(ctx context.Context, msg *irisfast.Message, args []string) {
	if len(args) == 0 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	c, err := roster.FindCharacter(strings.Join(args, " "))
	if err != nil {
		b.send(msg.Room, b.fmt.Render("report.unknown_character", nil))
		return
	}
	ranked, err := b.stats.TopPlayersByCharacter(ctx, c.ID, b.cfg.TopLimit)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Leaderboard(b.fmt.TopCharacterHeader(c), ranked, 0))
}

func (b *bot) cmdFaction(ctx context.Context, msg *irisfast.Message, args []string) {
	if len(args) == 0 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	f, err := roster.FindFaction(strings.Join(args, " "))
	if err != nil {
		b.send(msg.Room, b.fmt.Render("report.unknown_character", nil))
		return
	}
	ranked, err := b.stats.TopPlayersByFaction(ctx, f.ID, b.cfg.TopLimit)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Leaderboard(b.fmt.TopFactionHeader(f), ranked, 0))
}

func (b *bot) cmdProfile(ctx context.Context, msg *irisfast.Message, args []string) {
	var p *stats.Profile
	var err error
	if len(args) > 0 {
		p, err = b.stats.ProfileByHandle(ctx, strings.TrimPrefix(args[0], "@"))
	} else {
		var player *domain.Player
		player, err = b.matchRepo.PlayerByChatID(ctx, msg.SenderID())
		if err == nil && player == nil {
			err = match.ErrPlayerNotFound
		}
		if err == nil {
			p, err = b.stats.ProfileByID(ctx, player.ID)
		}
	}
	if errors.Is(err, match.ErrPlayerNotFound) {
		b.send(msg.Room, b.fmt.Render("admin.player_not_found", nil))
		return
	}
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Profile(p))
}

// cmdLink ties the sender's chat identity to a player handle. Linking is what
// makes the bare profile command and holder title edits recognize the sender.
func (b *bot) cmdLink(ctx context.Context, msg *irisfast.Message, args []string) {
	owner := msg.SenderID()
	if owner == "" {
		return
	}
	if len(args) == 0 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	player, err := b.matchRepo.GetOrCreatePlayer(ctx, strings.TrimPrefix(args[0], "@"))
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	if err := b.matchRepo.LinkChatID(ctx, player.ID, owner); err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Render("profile.linked", map[string]any{"Handle": player.Handle}))
}

// --- titles ---

func (b *bot) cmdTitles(ctx context.Context, msg *irisfast.Message) {
	all, err := b.titleRepo.List(ctx)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	holders := make(map[int64]string)
	players, err := b.matchRepo.ListPlayers(ctx)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	for _, p := range players {
		holders[p.ID] = p.Handle
	}
	b.send(msg.Room, b.fmt.Titles(all, holders))
}

func (b *bot) cmdSetTitle(ctx context.Context, msg *irisfast.Message, args []string) {
	if len(args) < 2 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	category := strings.ToLower(args[0])
	holderChat := ""
	if t, err := b.titleRepo.ByCategory(ctx, category); err == nil && t != nil && t.PlayerID != 0 {
		if holder, err := b.matchRepo.PlayerByID(ctx, t.PlayerID); err == nil && holder != nil {
			holderChat = holder.ChatID
		}
	}
	if !b.roles.CanEditTitle(msg.SenderID(), holderChat) {
		b.send(msg.Room, b.fmt.Render("titles.not_allowed", nil))
		return
	}
	if _, err := b.titles.SetText(ctx, category, strings.Join(args[1:], " ")); err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Render("titles.text_updated", nil))
}

func (b *bot) cmdGrant(ctx context.Context, msg *irisfast.Message, args []string) {
	if !b.roles.CanGrantCustomTitles(msg.SenderID()) {
		b.send(msg.Room, b.fmt.Render("admin.not_allowed", nil))
		return
	}
	if len(args) < 2 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	handle := strings.TrimPrefix(args[0], "@")
	player, err := b.matchRepo.PlayerByHandle(ctx, handle)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	if player == nil {
		b.send(msg.Room, b.fmt.Render("admin.player_not_found", nil))
		return
	}
	if _, err := b.titles.Grant(ctx, player.ID, strings.Join(args[1:], " ")); err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Render("titles.granted", map[string]any{"Handle": handle}))
}

// --- admin ---

func (b *bot) cmdRemove(ctx context.Context, msg *irisfast.Message, args []string) {
	if !b.roles.CanManageMatches(msg.SenderID()) {
		b.send(msg.Room, b.fmt.Render("admin.not_allowed", nil))
		return
	}
	if len(args) == 0 {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(msg.Room, b.fmt.Render("common.usage", nil))
		return
	}
	if err := b.matches.Remove(ctx, id); err != nil {
		if errors.Is(err, match.ErrMatchNotFound) {
			b.send(msg.Room, b.fmt.Render("admin.match_not_found", map[string]any{"MatchID": id}))
			return
		}
		b.fail(msg.Room, err)
		return
	}
	b.send(msg.Room, b.fmt.Render("admin.match_removed", map[string]any{"MatchID": id}))
}

func (b *bot) cmdRebuild(ctx context.Context, msg *irisfast.Message, args []string) {
	if !b.roles.CanManageMatches(msg.SenderID()) {
		b.send(msg.Room, b.fmt.Render("admin.not_allowed", nil))
		return
	}
	// rebuilds replay the full history, give them room to run
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if len(args) > 0 {
		handle := strings.TrimPrefix(args[0], "@")
		player, err := b.matchRepo.PlayerByHandle(ctx, handle)
		if err != nil {
			b.fail(msg.Room, err)
			return
		}
		if player == nil {
			b.send(msg.Room, b.fmt.Render("admin.player_not_found", nil))
			return
		}
		sum, err := b.rebuilder.RebuildPlayer(ctx, player.ID)
		if err != nil {
			b.fail(msg.Room, err)
			return
		}
		b.titles.RefreshAll(ctx)
		b.send(msg.Room, b.fmt.Render("admin.rebuild_player_done", map[string]any{
			"Handle": handle, "Processed": sum.Processed, "Failed": sum.Failed,
		}))
		return
	}

	sum, err := b.rebuilder.RebuildAll(ctx)
	if err != nil {
		b.fail(msg.Room, err)
		return
	}
	b.titles.RefreshAll(ctx)
	b.send(msg.Room, b.fmt.Render("admin.rebuild_done", map[string]any{
		"Processed": sum.Processed, "Failed": sum.Failed, "Total": sum.Total,
	}))
}

func (b *bot) fail(room string, err error) {
	b.log.Error("command failed", zap.Error(err))
	b.send(room, b.fmt.Render("common.internal_error", nil))
}
