package notify

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/bson"

	"mentra/db"
	"mentra/models"
	"mentra/rdx"
	"mentra/utils"
)

// RoleDirector receives observational notifications for every booking
// lifecycle event.
const RoleDirector = "director"

var (
	tgOnce sync.Once
	tgBot  *bot.Bot
	tgChat string
)

func telegramBot() *bot.Bot {
	tgOnce.Do(func() {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		tgChat = os.Getenv("TELEGRAM_CHAT_ID")
		if token == "" || tgChat == "" {
			return
		}
		b, err := bot.New(token)
		if err != nil {
			log.Printf("[notify] telegram init failed: %v", err)
			return
		}
		tgBot = b
	})
	return tgBot
}

// Dispatch stores the notification (fanning a role target out to every user
// holding that role), publishes it on the event channel, and mirrors it to
// the operations Telegram chat when one is configured.
func Dispatch(ctx context.Context, n models.Notification) error {
	n.CreatedAt = time.Now()

	targets := []string{n.UserID}
	if n.Role != "" {
		users, err := utils.FindAndDecode[models.User](ctx, db.UserCollection, bson.M{"role": n.Role})
		if err != nil {
			return err
		}
		targets = targets[:0]
		for _, u := range users {
			targets = append(targets, u.UserID)
		}
	}

	docs := make([]interface{}, 0, len(targets))
	for _, userID := range targets {
		if userID == "" {
			continue
		}
		doc := n
		doc.ID = utils.GetUUID()
		doc.UserID = userID
		docs = append(docs, doc)
	}
	if len(docs) > 0 {
		if _, err := db.NotificationsCollection.InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	if data, err := json.Marshal(n); err == nil {
		if err := rdx.Conn.Publish(ctx, "notification-events", data).Err(); err != nil {
			log.Printf("[notify] publish failed: %v", err)
		}
	}

	if b := telegramBot(); b != nil {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: tgChat,
			Text:   n.Name + "\n" + n.Details,
		})
		if err != nil {
			log.Printf("[notify] telegram send failed: %v", err)
		}
	}

	return nil
}

// Fire is the best-effort form used inside booking flows: any error is
// logged and swallowed so it can never fail the primary operation.
func Fire(ctx context.Context, n models.Notification) {
	if err := Dispatch(ctx, n); err != nil {
		log.Printf("[notify] dispatch failed for %q: %v", n.Name, err)
	}
}
