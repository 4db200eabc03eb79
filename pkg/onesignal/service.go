package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured - не заданы app_id или REST API ключ.
var ErrNotConfigured = errors.New("OneSignal не настроен")

type ServiceInterface interface {
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}

// Message - одно push-уведомление на несколько устройств.
type Message struct {
	PlayerIDs []string
	Heading   string
	Content   string
	Data      map[string]interface{}
}

type Service struct {
	appID      string
	restAPIKey string
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewService(appID, restAPIKey, apiURL string, logger *zap.Logger) ServiceInterface {
	return &Service{
		appID:      appID,
		restAPIKey: restAPIKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type notificationRequest struct {
	AppID            string                 `json:"app_id"`
	IncludePlayerIDs []string               `json:"include_player_ids"`
	Headings         map[string]string      `json:"headings"`
	Contents         map[string]string      `json:"contents"`
	Data             map[string]interface{} `json:"data,omitempty"`
}

type notificationResponse struct {
	ID         string      `json:"id"`
	Recipients int         `json:"recipients"`
	Errors     interface{} `json:"errors,omitempty"`
}

func (s *Service) Enabled() bool {
	return s.appID != "" && s.restAPIKey != ""
}

func (s *Service) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if len(msg.PlayerIDs) == 0 {
		return fmt.Errorf("не указаны получатели push-уведомления")
	}

	payload := notificationRequest{
		AppID:            s.appID,
		IncludePlayerIDs: msg.PlayerIDs,
		Headings:         map[string]string{"en": msg.Heading},
		Contents:         map[string]string{"en": msg.Content},
		Data:             msg.Data,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.restAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса в OneSignal: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("OneSignal API ошибка: статус %d, ответ: %s", resp.StatusCode, string(body))
	}

	var result notificationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("ошибка декодирования ответа OneSignal: %w", err)
	}

	s.logger.Info("OneSignal: уведомление отправлено",
		zap.Int("recipients", len(msg.PlayerIDs)),
		zap.String("heading", msg.Heading),
		zap.String("notification_id", result.ID),
	)
	return nil
}
