package notifications

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

// WebhookSender posts messages to configured notification channels.
type WebhookSender struct {
	client *http.Client
	db     *sql.DB
}

func NewWebhookSender(db *sql.DB) *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: 10 * time.Second},
		db:     db,
	}
}

// NotifyAchievement announces an unlock on every enabled channel.
// Fire-and-forget: delivery failures are logged, never propagated.
func (w *WebhookSender) NotifyAchievement(userID uuid.UUID, a models.Achievement) {
	channels, err := w.enabledChannels()
	if err != nil {
		log.Printf("notifications: loading channels failed: %v", err)
		return
	}
	title := "Achievement unlocked: " + a.Name
	message := a.Description
	for _, ch := range channels {
		if err := w.send(ch, title, message); err != nil {
			log.Printf("notifications: %s delivery failed: %v", ch.ChannelType, err)
		}
	}
}

func (w *WebhookSender) enabledChannels() ([]*models.NotificationChannel, error) {
	rows, err := w.db.Query(`
		SELECT id, channel_type, webhook_url, is_enabled, created_at
		FROM notification_channels WHERE is_enabled = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.NotificationChannel
	for rows.Next() {
		ch := &models.NotificationChannel{}
		if err := rows.Scan(&ch.ID, &ch.ChannelType, &ch.WebhookURL, &ch.IsEnabled, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (w *WebhookSender) send(channel *models.NotificationChannel, title, message string) error {
	switch channel.ChannelType {
	case "discord":
		return w.sendDiscord(channel.WebhookURL, title, message)
	case "slack":
		return w.sendSlack(channel.WebhookURL, title, message)
	case "generic":
		return w.sendGeneric(channel.WebhookURL, title, message)
	default:
		return fmt.Errorf("unknown channel type: %s", channel.ChannelType)
	}
}

func (w *WebhookSender) sendDiscord(url, title, message string) error {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       title,
				"description": message,
				"footer": map[string]string{
					"text": "TrackNest",
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
	return w.postJSON(url, payload)
}

func (w *WebhookSender) sendSlack(url, title, message string) error {
	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{"type": "plain_text", "text": title},
			},
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": message},
			},
		},
	}
	return w.postJSON(url, payload)
}

func (w *WebhookSender) sendGeneric(url, title, message string) error {
	payload := map[string]string{
		"title":   title,
		"message": message,
		"source":  "tracknest",
	}
	return w.postJSON(url, payload)
}

func (w *WebhookSender) postJSON(url string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := w.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
