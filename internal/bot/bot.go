package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/flor3z/paddock-bot/internal/checkin"
	"github.com/flor3z/paddock-bot/internal/config"
	"github.com/flor3z/paddock-bot/internal/discord"
	"github.com/flor3z/paddock-bot/internal/lock"
	"github.com/flor3z/paddock-bot/internal/notify"
	"github.com/flor3z/paddock-bot/internal/permission"
	"github.com/flor3z/paddock-bot/internal/refresher"
	"github.com/flor3z/paddock-bot/internal/roster"
	"github.com/flor3z/paddock-bot/internal/storage"
)

// requestTimeout bounds the Discord and store work done for one event
const requestTimeout = 30 * time.Second

// Bot represents the Discord bot instance
type Bot struct {
	config    *config.Config
	session   *discordgo.Session
	repo      *storage.Repository
	redis     *redis.Client
	client    *discord.Client
	checkins  *checkin.Service
	notifier  *notify.Dispatcher
	gate      *permission.Gate
	rosters   *roster.Service
	refresher *refresher.Refresher
	commands  []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(ctx context.Context, cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Member intents drive roster updates
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	// Initialize storage
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	b := &Bot{
		config:  cfg,
		session: session,
		repo:    repo,
		client:  discord.New(session),
	}

	locker, err := b.newLocker(ctx)
	if err != nil {
		repo.Close()
		return nil, err
	}

	b.checkins = checkin.NewService(repo, locker, b.client, cfg.TrackImageBaseURL)
	b.notifier = notify.New(repo, b.client)
	b.gate = permission.NewGate(repo, cfg.OperatorID)
	b.rosters = roster.NewService(repo, b.client, locker, cfg.RosterRepostDelay)

	// Register event handlers
	b.registerHandlers()

	return b, nil
}

// newLocker returns a Redis-backed locker when REDIS_URL is set, so
// several bot processes can share one database
func (b *Bot) newLocker(ctx context.Context) (lock.Locker, error) {
	if b.config.RedisURL == "" {
		slog.Info("Using in-process locks")
		return lock.NewKeyedMutex(), nil
	}

	client, err := lock.NewRedisClient(ctx, b.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	b.redis = client
	slog.Info("Using redis locks", "ttl", b.config.LockTTL)
	return lock.NewRedisLocker(client, "paddock:lock:", b.config.LockTTL), nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	if b.config.RosterRefreshInterval > 0 {
		b.refresher = refresher.New(b.rosters, b.config.RosterRefreshInterval)
		b.refresher.Start(ctx)
	}

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	if b.refresher != nil {
		b.refresher.Stop()
	}

	// Close Discord session first so no handler touches storage afterwards
	var err error
	if b.session != nil {
		err = b.session.Close()
	}

	if b.redis != nil {
		if cerr := b.redis.Close(); cerr != nil {
			slog.Error("Failed to close redis client", "error", cerr)
		}
	}

	if b.repo != nil {
		if cerr := b.repo.Close(); cerr != nil {
			slog.Error("Failed to close database", "error", cerr)
		}
	}

	return err
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handleMemberUpdate)
	b.session.AddHandler(b.handleMemberAdd)
	b.session.AddHandler(b.handleMemberRemove)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction routes commands, button presses and autocomplete
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, s, i)
	case discordgo.InteractionMessageComponent:
		b.handleCheckInButton(ctx, s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	}
}

func (b *Bot) handleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	if i.GuildID == "" || i.Member == nil {
		respondWithMessage(s, i, "This command can only be used in a server.")
		return
	}

	// The manager role itself is guarded by a stricter rule
	if data.Name == "setmanagerole" {
		b.handleSetManagerRole(s, i)
		return
	}

	if !b.gate.Authorize(b.actor(i), i.GuildID) {
		respondWithMessage(s, i, permission.DeniedMessage)
		return
	}

	switch data.Name {
	case "postcheckin":
		b.handlePostCheckIn(ctx, s, i)
	case "setcheckinchannel":
		b.handleSetCheckInChannel(s, i)
	case "createroster":
		b.handleCreateRoster(s, i)
	case "addteam":
		b.handleAddTeam(ctx, s, i)
	case "updateteam":
		b.handleUpdateTeam(ctx, s, i)
	case "deleteroster":
		b.handleDeleteRoster(ctx, s, i)
	case "deleteteam":
		b.handleDeleteTeam(ctx, s, i)
	case "refreshroster":
		b.handleRefreshRoster(ctx, s, i)
	case "reorderroster":
		b.handleReorderRoster(ctx, s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// actor describes the invoking member for the permission gate
func (b *Bot) actor(i *discordgo.InteractionCreate) permission.Actor {
	actor := permission.Actor{}
	if i.Member == nil {
		return actor
	}
	if i.Member.User != nil {
		actor.ID = i.Member.User.ID
	}
	actor.RoleIDs = i.Member.Roles
	actor.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	actor.IsOwner = actor.ID != "" && actor.ID == b.guildOwner(i.GuildID)
	return actor
}

func (b *Bot) guildOwner(guildID string) string {
	if guild, err := b.session.State.Guild(guildID); err == nil {
		return guild.OwnerID
	}
	guild, err := b.session.Guild(guildID)
	if err != nil {
		slog.Warn("Failed to load guild owner", "guildID", guildID, "error", err)
		return ""
	}
	return guild.OwnerID
}

// Membership events

func (b *Bot) handleMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	var before []string
	if m.BeforeUpdate != nil {
		before = m.BeforeUpdate.Roles
	}
	changed := changedRoles(before, m.Roles, m.BeforeUpdate != nil)
	b.updateRoles(m.GuildID, changed)
}

func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.updateRoles(m.GuildID, m.Roles)
}

// handleMemberRemove refreshes the whole guild; the departed member's
// roles are not always known
func (b *Bot) handleMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := b.rosters.RefreshGuild(ctx, m.GuildID); err != nil {
		slog.Error("Failed to refresh rosters after member left", "guildID", m.GuildID, "error", err)
	}
}

func (b *Bot) updateRoles(guildID string, roleIDs []string) {
	if len(roleIDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	for _, roleID := range roleIDs {
		if err := b.rosters.UpdateForRole(ctx, roleID); err != nil {
			slog.Error("Failed to update rosters for role", "guildID", guildID, "roleID", roleID, "error", err)
		}
	}
}
