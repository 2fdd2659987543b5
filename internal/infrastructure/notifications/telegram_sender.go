package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/pkg/config"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramSender posts reminders to a chat through the Bot API.
type TelegramSender struct {
	token      string
	chatID     int64
	httpClient *http.Client
	baseURL    string
}

var _ providers.ReminderSender = (*TelegramSender)(nil)

// NewTelegramSender creates a sender for cfg.TelegramChatID.
func NewTelegramSender(cfg *config.NotificationConfig) (*TelegramSender, error) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set")
	}
	return &TelegramSender{
		token:      cfg.TelegramBotToken,
		chatID:     cfg.TelegramChatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    telegramBaseURL,
	}, nil
}

type sendMessageReq struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (t *TelegramSender) Channel() string { return "telegram" }

func (t *TelegramSender) SendReminder(ctx context.Context, _ *entities.Reminder, message string) error {
	return t.SendMessage(ctx, message)
}

// SendMessage sends plain text; no parse mode so doctor names with
// markdown characters go through untouched.
func (t *TelegramSender) SendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	jsonBody, err := json.Marshal(sendMessageReq{ChatID: t.chatID, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram api returned status: %s, body: %s", resp.Status, string(bodyBytes))
	}
	return nil
}
