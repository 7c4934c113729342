package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reelgrab/internal/domain"
	"reelgrab/internal/trending"
	"reelgrab/internal/urlcache"
	"reelgrab/internal/worker"
)

const (
	trendingDays  = 5
	trendingLimit = 5
	soundsLimit   = 5
	// Sample size for the creator stats command.
	creatorSampleSize = 30
	// Sample size per hashtag in comparison mode.
	gapSampleSize = 20

	callbackPrefix = "dl:"
)

// sender is the slice of tgbotapi.BotAPI the bot uses, split out so handlers
// can be exercised without a live Telegram connection.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Downloader resolves a page URL into a local media file. The hook fires when
// the resolver falls back to its alternative strategy.
type Downloader interface {
	ResolveWithProgress(ctx context.Context, rawURL string, onFallback func()) (*domain.ResolvedMedia, error)
}

// TrendingAPI is the feed/search/analytics surface used by the commands.
type TrendingAPI interface {
	Feed(ctx context.Context, q trending.FeedQuery) []domain.TrendingVideo
	Search(ctx context.Context, q trending.SearchQuery) []domain.TrendingVideo
	CreatorPosts(ctx context.Context, username string, limit int) []domain.TrendingVideo
	Sounds(ctx context.Context, region string, limit int) []domain.TrendingSound
}

// Bot dispatches Telegram updates: plain links go through the download
// pipeline, commands go through the trending client. All network-bound work
// runs on the worker pool so the update loop never blocks.
type Bot struct {
	api       sender
	downloads Downloader
	trends    TrendingAPI
	cache     *urlcache.Cache
	pool      *worker.Pool
	region    string
	logger    *slog.Logger
}

// New wires the bot.
func New(
	api sender,
	downloads Downloader,
	trends TrendingAPI,
	cache *urlcache.Cache,
	pool *worker.Pool,
	region string,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		api:       api,
		downloads: downloads,
		trends:    trends,
		cache:     cache,
		pool:      pool,
		region:    region,
		logger:    logger.With("component", "bot"),
	}
}

// Run consumes updates until the channel closes.
func (b *Bot) Run(updates tgbotapi.UpdatesChannel) {
	b.logger.Info("bot started")
	for update := range updates {
		b.handleUpdate(update)
	}
	b.logger.Info("bot update channel closed")
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	b.handleLink(msg.Chat.ID, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.reply(chatID, msgWelcome)
	case "trending":
		b.handleTrending(chatID, args)
	case "hashtag":
		b.handleHashtag(chatID, args)
	case "criador":
		b.handleCreator(chatID, args)
	case "sons":
		b.handleSounds(chatID, args)
	default:
		b.reply(chatID, msgWelcome)
	}
}

// handleLink runs the download pipeline for a pasted video link.
func (b *Bot) handleLink(chatID int64, url string) {
	if domain.DetectPlatform(url) == domain.PlatformUnsupported {
		b.reply(chatID, msgInvalidLink)
		return
	}
	b.submit(chatID, func(ctx context.Context) {
		b.downloadAndSend(ctx, chatID, url)
	})
}

// downloadAndSend drives one download end to end: status message, resolve,
// upload, cleanup. The local file is removed no matter how delivery went.
func (b *Bot) downloadAndSend(ctx context.Context, chatID int64, url string) {
	logger := b.logger.With("chat_id", chatID, "url", url)

	status, err := b.api.Send(tgbotapi.NewMessage(chatID, msgProcessing))
	if err != nil {
		logger.Error("sending status message", "error", err)
		return
	}
	b.request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo))

	media, err := b.downloads.ResolveWithProgress(ctx, url, func() {
		b.edit(chatID, status.MessageID, msgTryingAlternative)
	})
	if err != nil {
		logger.Warn("download failed", "error", err)
		b.edit(chatID, status.MessageID, formatDownloadError(userMessage(err)))
		return
	}
	defer func() {
		if removeErr := os.Remove(media.LocalPath); removeErr != nil {
			logger.Warn("cleaning up file", "path", media.LocalPath, "error", removeErr)
		} else {
			logger.Info("cleaned up file", "path", media.LocalPath)
		}
	}()

	b.edit(chatID, status.MessageID, msgUploading)

	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(media.LocalPath))
	video.Caption = msgVideoCaption
	if _, err := b.api.Send(video); err != nil {
		logger.Error("sending video", "error", err)
		b.edit(chatID, status.MessageID, formatSendError(err.Error()))
		return
	}

	b.request(tgbotapi.NewDeleteMessage(chatID, status.MessageID))
	logger.Info("video delivered", "bytes", media.ByteSize, "strategy", media.Strategy)
}

func (b *Bot) handleTrending(chatID int64, region string) {
	if region == "" {
		region = b.region
	}
	b.submit(chatID, func(ctx context.Context) {
		videos := b.trends.Feed(ctx, trending.FeedQuery{
			Region: region,
			Days:   trendingDays,
			Limit:  trendingLimit,
		})
		if len(videos) == 0 {
			b.reply(chatID, msgNoTrending)
			return
		}
		header := fmt.Sprintf("🔥 *Vídeos em alta (%s):*", region)
		b.replyWithKeyboard(chatID, formatTrendingList(header, videos), b.downloadKeyboard(videos))
	})
}

func (b *Bot) handleHashtag(chatID int64, args string) {
	tags := strings.Fields(args)
	if len(tags) == 0 {
		b.reply(chatID, msgUsageHashtag)
		return
	}
	if len(tags) > 1 {
		b.compareHashtags(chatID, tags)
		return
	}

	hashtag := tags[0]
	b.submit(chatID, func(ctx context.Context) {
		videos := b.trends.Search(ctx, trending.SearchQuery{
			Hashtag: hashtag,
			Region:  b.region,
			Limit:   trendingLimit,
			SortBy:  trending.SortByLikes,
		})
		if len(videos) == 0 {
			b.reply(chatID, formatNoResults(strings.TrimPrefix(hashtag, "#")))
			return
		}
		header := fmt.Sprintf("🔎 *Resultados para #%s:*", escapeMarkdown(strings.TrimPrefix(hashtag, "#")))
		b.replyWithKeyboard(chatID, formatTrendingList(header, videos), b.downloadKeyboard(videos))
	})
}

// compareHashtags samples each hashtag and reports which ones look like
// content gaps: above-average engagement with below-average competition.
func (b *Bot) compareHashtags(chatID int64, tags []string) {
	b.submit(chatID, func(ctx context.Context) {
		byHashtag := make(map[string][]domain.TrendingVideo, len(tags))
		for _, tag := range tags {
			tag = strings.TrimPrefix(tag, "#")
			byHashtag[tag] = b.trends.Search(ctx, trending.SearchQuery{
				Hashtag: tag,
				Region:  b.region,
				Limit:   gapSampleSize,
				SortBy:  trending.SortByLikes,
			})
		}
		b.reply(chatID, formatHashtagComparison(trending.FindContentGaps(byHashtag)))
	})
}

func (b *Bot) handleCreator(chatID int64, username string) {
	if username == "" {
		b.reply(chatID, msgUsageCreator)
		return
	}
	b.submit(chatID, func(ctx context.Context) {
		username = strings.TrimPrefix(username, "@")
		posts := b.trends.CreatorPosts(ctx, username, creatorSampleSize)
		b.reply(chatID, formatCreatorStats(trending.SummarizeCreator(username, posts)))
	})
}

func (b *Bot) handleSounds(chatID int64, region string) {
	if region == "" {
		region = b.region
	}
	b.submit(chatID, func(ctx context.Context) {
		sounds := b.trends.Sounds(ctx, region, soundsLimit)
		if len(sounds) == 0 {
			b.reply(chatID, msgNoSounds)
			return
		}
		b.reply(chatID, formatSoundsList(sounds))
	})
}

// handleCallback resolves a download button press back into a URL through
// the short-id cache and reruns the standard download flow.
func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	id, ok := parseCallback(cq.Data)
	if !ok {
		b.request(tgbotapi.NewCallback(cq.ID, ""))
		return
	}

	url, found := b.cache.Get(id)
	if !found {
		b.request(tgbotapi.NewCallback(cq.ID, msgLinkExpired))
		return
	}

	b.request(tgbotapi.NewCallback(cq.ID, ""))
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	b.submit(chatID, func(ctx context.Context) {
		b.downloadAndSend(ctx, chatID, url)
	})
}

// downloadKeyboard builds one download button per listed video, with the
// URL parked in the cache behind a short id.
func (b *Bot) downloadKeyboard(videos []domain.TrendingVideo) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for i, v := range videos {
		id := b.cache.Put(v.URL)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("⬇️ %d", i+1),
			callbackPrefix+id,
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(buttons)
}

func parseCallback(data string) (string, bool) {
	id, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// userMessage extracts the localized text of a download failure; anything
// unclassified surfaces its raw error text.
func userMessage(err error) string {
	if f, ok := domain.AsFailure(err); ok {
		return f.Message
	}
	return err.Error()
}

func (b *Bot) submit(chatID int64, task worker.Task) {
	err := b.pool.Submit(task)
	if err == nil {
		return
	}
	if errors.Is(err, worker.ErrQueueFull) {
		b.reply(chatID, msgQueueFull)
		return
	}
	b.logger.Error("submitting task", "error", err)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("editing message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Error("telegram request", "error", err)
	}
}
