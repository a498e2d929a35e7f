package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Pixie/core"
	"Pixie/lib/sl"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const errorResponse = "Sorry, I could not draw that. Please try again later."

const helpText = "You can use the following commands:\n" +
	"/help - show this help\n" +
	"/imagine <prompt> - draw a new image from a description\n" +
	"/vary - send a photo with this caption to get a variation of it\n"

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.BotAPI
	images      core.ImageService
	botUsername string
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewTgBot(conf *core.Config, log *slog.Logger) (*TgBot, error) {
	ctx, cancel := context.WithCancel(context.Background())
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		botUsername: conf.Telegram.Username,
		ctx:         ctx,
		cancel:      cancel,
	}

	api, err := tgbotapi.NewBotAPI(conf.Telegram.ApiKey)
	if err != nil {
		cancel()
		return nil, err
	}
	tgBot.api = api
	if tgBot.botUsername == "" {
		tgBot.botUsername = api.Self.UserName
	}

	return tgBot, nil
}

// SetImages set image service
func (t *TgBot) SetImages(images core.ImageService) {
	t.images = images
}

func (t *TgBot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("getting updates: %w", err)
	}

	for update := range updates {
		if update.Message == nil {
			continue
		}
		incoming := update.Message
		chat := incoming.Chat

		text := incoming.Text
		if text == "" {
			text = incoming.Caption
		}
		command, args := parseCommand(text, t.botUsername)

		if command == "" && !chat.IsPrivate() && !t.isMentioned(text) {
			continue
		}

		user := ""
		if incoming.From != nil {
			user = incoming.From.UserName
		}
		t.log.With(
			slog.Int64("chat", chat.ID),
			slog.String("user", user),
			slog.String("command", command),
		).Info("incoming message")

		switch command {
		case "help", "start":
			t.plainResponse(chat.ID, helpText)
		case "imagine":
			if args == "" {
				t.plainResponse(chat.ID, "Tell me what to draw: /imagine <prompt>")
				continue
			}
			go t.respondWithImages(chat.ID, func(ctx context.Context) ([]string, error) {
				return t.images.Imagine(ctx, chat.ID, args)
			})
		case "vary":
			fileId := largestPhoto(incoming.Photo)
			if fileId == "" {
				t.plainResponse(chat.ID, "Send a photo with the caption /vary")
				continue
			}
			go t.respondWithImages(chat.ID, func(ctx context.Context) ([]string, error) {
				url, err := t.api.GetFileDirectURL(fileId)
				if err != nil {
					return nil, fmt.Errorf("getting file url: %w", err)
				}
				return t.images.Vary(ctx, chat.ID, url)
			})
		default:
			if chat.IsPrivate() {
				t.plainResponse(chat.ID, helpText)
			}
		}
	}
	return nil
}

func (t *TgBot) Stop() {
	t.cancel()
	t.api.StopReceivingUpdates()
}

// respondWithImages keeps the upload_photo action visible while the images
// are produced, then sends every file back to the chat
func (t *TgBot) respondWithImages(chatId int64, produce func(ctx context.Context) ([]string, error)) {
	stopTicker := make(chan struct{})
	go func() {
		t.sendChatAction(chatId, tgbotapi.ChatUploadPhoto)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sendChatAction(chatId, tgbotapi.ChatUploadPhoto)
			case <-stopTicker:
				return
			}
		}
	}()

	files, err := produce(t.ctx)
	close(stopTicker)

	if err != nil {
		t.log.With(slog.Int64("chat", chatId)).Error("producing images", sl.Err(err))
	}
	if len(files) == 0 {
		t.plainResponse(chatId, errorResponse)
		return
	}
	for _, file := range files {
		msg := tgbotapi.NewPhotoUpload(chatId, file)
		if _, err := t.api.Send(msg); err != nil {
			t.log.With(slog.Int64("chat", chatId), sl.Path(file)).Error("sending photo", sl.Err(err))
		}
	}
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	msg := tgbotapi.NewChatAction(chatId, action)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Debug("sending chat action", sl.Err(err))
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	msg := tgbotapi.NewMessage(chatId, text)
	if _, err := t.api.Send(msg); err != nil {
		t.log.With(slog.Int64("chat", chatId)).Error("sending message", sl.Err(err))
	}
}

// detect if we are mentioned in the message
func (t *TgBot) isMentioned(text string) bool {
	if t.botUsername != "" {
		return strings.Contains(text, "@"+t.botUsername)
	}
	return false
}

// parseCommand splits "/imagine@bot a red fox" into ("imagine", "a red fox").
// Commands addressed to another bot are ignored.
func parseCommand(text, botUsername string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, args, _ := strings.Cut(text, " ")
	command, target, addressed := strings.Cut(strings.TrimPrefix(head, "/"), "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, botUsername) {
		return "", ""
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

// largestPhoto returns the file id of the biggest size telegram offers
func largestPhoto(photos *[]tgbotapi.PhotoSize) string {
	if photos == nil {
		return ""
	}
	best, bestArea := "", -1
	for _, p := range *photos {
		if area := p.Width * p.Height; area > bestArea {
			best, bestArea = p.FileID, area
		}
	}
	return best
}
