package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

const TelegramAPIURL = "https://api.telegram.org"

// TelegramNotifier posts HTML messages to a chat through the Bot API.
type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewTelegramNotifier(baseURL, token, chatID string, timeout time.Duration, logger *zap.Logger) *TelegramNotifier {
	if baseURL == "" {
		baseURL = TelegramAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Send delivers message and reports success. Failures are logged, never retried.
func (t *TelegramNotifier) Send(ctx context.Context, message string) bool {
	if t.token == "" || t.chatID == "" {
		t.logger.Warn("Telegram bot token or chat ID not configured")
		return false
	}
	if err := t.send(ctx, message); err != nil {
		t.logger.Error("Telegram alert failed", zap.Error(err))
		return false
	}
	return true
}

func (t *TelegramNotifier) send(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {message},
		"parse_mode": {"HTML"},
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// The token is part of the URL; keep it out of the logs.
		return fmt.Errorf("%w: %s", domain.ErrDelivery, strings.ReplaceAll(err.Error(), t.token, "***"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrDelivery, err)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if resp.StatusCode >= 400 {
		_ = json.Unmarshal(body, &result)
		return fmt.Errorf("%w: status %d: %s", domain.ErrDelivery, resp.StatusCode, result.Description)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrDelivery, err)
	}
	if !result.OK {
		return fmt.Errorf("%w: %s", domain.ErrDelivery, result.Description)
	}
	return nil
}
